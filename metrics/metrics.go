// Package metrics defines the client coverage recording and the backends report metrics to. Metric names are
// prefixed with "flowcov.".
package metrics

import "time"

type Tags map[string]string

// With returns a copy of the tags with key set to value.
func (t Tags) With(key, value string) Tags {
	tags := make(Tags, len(t)+1)
	for k, v := range t {
		tags[k] = v
	}
	tags[key] = value

	return tags
}

type Client interface {
	// Counter increments the named counter, e.g. for every recorded element
	Counter(name string, tags Tags, value int64)

	Distribution(name string, tags Tags, value float64)

	// Gauge reports the current value, e.g. the size of the definition cache
	Gauge(name string, tags Tags, value int64)

	Timing(name string, tags Tags, duration time.Duration)

	WithTags(tags Tags) Client
}
