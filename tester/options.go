package tester

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/metrics"
	"github.com/flowcov/go-flowcov/runstate"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	Logger  *slog.Logger
	Clock   clock.Clock
	Backend backend.Backend

	runStateOptions []runstate.Option
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.Logger = logger
		o.runStateOptions = append(o.runStateOptions, runstate.WithLogger(logger))
	}
}

func WithMetrics(client metrics.Client) Option {
	return func(o *options) {
		o.runStateOptions = append(o.runStateOptions, runstate.WithMetrics(client))
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.runStateOptions = append(o.runStateOptions, runstate.WithTracerProvider(tp))
	}
}

func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.Clock = c
		o.runStateOptions = append(o.runStateOptions, runstate.WithClock(c))
	}
}

func WithExcludedProcessDefinitionKeys(keys ...string) Option {
	return func(o *options) {
		o.runStateOptions = append(o.runStateOptions, runstate.WithExcludedProcessDefinitionKeys(keys...))
	}
}

func WithEndWithoutStartPolicy(policy coverage.EndWithoutStartPolicy) Option {
	return func(o *options) {
		o.runStateOptions = append(o.runStateOptions, runstate.WithEndWithoutStartPolicy(policy))
	}
}

// WithRunStateOptions passes options to the underlying run state, e.g. the ones of a loaded config.
func WithRunStateOptions(opts ...runstate.Option) Option {
	return func(o *options) {
		o.runStateOptions = append(o.runStateOptions, opts...)
	}
}

// WithBackend sets the backend Save persists runs to.
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		o.Backend = b
	}
}
