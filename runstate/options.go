package runstate

import (
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/flowcov/go-flowcov/coverage"
	mi "github.com/flowcov/go-flowcov/internal/metrics"
	"github.com/flowcov/go-flowcov/metrics"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const TracerName = "flowcov"

type Options struct {
	Logger *slog.Logger

	Metrics metrics.Client

	TracerProvider trace.TracerProvider

	// Clock is used to stamp when test methods start and finish. Element ordering never depends on it.
	Clock clock.Clock

	// ExcludedProcessDefinitionKeys are process definition keys whose elements are never recorded. A nil slice
	// excludes nothing.
	ExcludedProcessDefinitionKeys []string

	// EndWithoutStartPolicy determines how flow node ends without a recorded start are handled.
	EndWithoutStartPolicy coverage.EndWithoutStartPolicy
}

var DefaultOptions Options = Options{
	Logger:         slog.Default(),
	Metrics:        mi.NewNoopMetricsClient(),
	TracerProvider: noop.NewTracerProvider(),
	Clock:          clock.New(),

	EndWithoutStartPolicy: coverage.EndWithoutStartRecord,
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithMetrics(client metrics.Client) Option {
	return func(o *Options) {
		o.Metrics = client
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		o.TracerProvider = tp
	}
}

func WithClock(c clock.Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

func WithExcludedProcessDefinitionKeys(keys ...string) Option {
	return func(o *Options) {
		o.ExcludedProcessDefinitionKeys = keys
	}
}

func WithEndWithoutStartPolicy(policy coverage.EndWithoutStartPolicy) Option {
	return func(o *Options) {
		o.EndWithoutStartPolicy = policy
	}
}

func ApplyOptions(opts ...Option) Options {
	options := DefaultOptions

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	if options.Metrics == nil {
		options.Metrics = mi.NewNoopMetricsClient()
	}

	if options.TracerProvider == nil {
		options.TracerProvider = noop.NewTracerProvider()
	}

	if options.Clock == nil {
		options.Clock = clock.New()
	}

	return options
}
