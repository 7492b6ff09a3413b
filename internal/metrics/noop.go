package metrics

import (
	"time"

	m "github.com/flowcov/go-flowcov/metrics"
)

// noopClient discards all metrics. It is the default for the run state and the backends.
type noopClient struct{}

func NewNoopMetricsClient() m.Client {
	return noopClient{}
}

func (noopClient) Counter(string, m.Tags, int64) {}

func (noopClient) Distribution(string, m.Tags, float64) {}

func (noopClient) Gauge(string, m.Tags, int64) {}

func (noopClient) Timing(string, m.Tags, time.Duration) {}

func (c noopClient) WithTags(m.Tags) m.Client {
	return c
}
