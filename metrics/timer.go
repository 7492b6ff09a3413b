package metrics

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Timer measures the duration of an operation with the clock of the component it belongs to.
type Timer struct {
	client Client
	clock  clock.Clock
	start  time.Time
	name   string
	tags   Tags
}

func NewTimer(client Client, c clock.Clock, name string, tags Tags) *Timer {
	if c == nil {
		c = clock.New()
	}

	return &Timer{
		client: client,
		clock:  c,
		start:  c.Now(),
		name:   name,
		tags:   tags,
	}
}

// Stop the timer and send the elapsed time as milliseconds as a distribution metric. It returns the elapsed time.
func (t *Timer) Stop() time.Duration {
	elapsed := t.clock.Since(t.start)
	t.client.Distribution(t.name, t.tags, float64(elapsed/time.Millisecond))

	return elapsed
}
