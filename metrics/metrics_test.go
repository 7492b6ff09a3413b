package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

type distributionClient struct {
	mu     sync.Mutex
	name   string
	tags   Tags
	values []float64
}

func (c *distributionClient) Counter(name string, tags Tags, value int64) {}

func (c *distributionClient) Distribution(name string, tags Tags, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.name = name
	c.tags = tags
	c.values = append(c.values, value)
}

func (c *distributionClient) Gauge(name string, tags Tags, value int64) {}

func (c *distributionClient) Timing(name string, tags Tags, duration time.Duration) {}

func (c *distributionClient) WithTags(tags Tags) Client { return c }

func Test_Timer(t *testing.T) {
	c := clock.NewMock()
	client := &distributionClient{}

	timer := NewTimer(client, c, "flowcov.run.save_time", Tags{"backend": "memory"})
	c.Add(1500 * time.Millisecond)

	require.Equal(t, 1500*time.Millisecond, timer.Stop())
	require.Equal(t, "flowcov.run.save_time", client.name)
	require.Equal(t, Tags{"backend": "memory"}, client.tags)
	require.Equal(t, []float64{1500}, client.values)
}

func Test_Tags_With(t *testing.T) {
	tags := Tags{"kind": "flowNode"}

	with := tags.With("outcome", "recorded")
	require.Equal(t, Tags{"kind": "flowNode", "outcome": "recorded"}, with)

	// The original tags are unchanged
	require.Equal(t, Tags{"kind": "flowNode"}, tags)

	require.Equal(t, Tags{"a": "b"}, Tags(nil).With("a", "b"))
}
