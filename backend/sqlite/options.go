package sqlite

import (
	"time"

	"github.com/flowcov/go-flowcov/backend"
)

type options struct {
	backend.Options

	// ApplyMigrations automatically applies database migrations on startup.
	ApplyMigrations bool

	// BusyTimeout is how long writes are retried while another process holds the database lock.
	BusyTimeout time.Duration
}

type option func(*options)

// WithApplyMigrations automatically applies database migrations on startup.
func WithApplyMigrations(applyMigrations bool) option {
	return func(o *options) {
		o.ApplyMigrations = applyMigrations
	}
}

// WithBusyTimeout sets how long writes are retried while the database is locked. 0 disables retries.
func WithBusyTimeout(timeout time.Duration) option {
	return func(o *options) {
		o.BusyTimeout = timeout
	}
}

// WithBackendOptions allows to pass generic backend options.
func WithBackendOptions(opts ...backend.BackendOption) option {
	return func(o *options) {
		for _, opt := range opts {
			opt(&o.Options)
		}
	}
}
