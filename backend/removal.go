package backend

import (
	"time"
)

type RemovalOptions struct {
	// CreatedBefore removes runs created before the given time. The zero value doesn't filter by time.
	CreatedBefore time.Time

	// ClassName only removes runs of the given class
	ClassName string

	// KeepLatest keeps the newest runs of every class
	KeepLatest int
}

type RemovalOption func(o *RemovalOptions)

func RemoveCreatedBefore(t time.Time) RemovalOption {
	return func(o *RemovalOptions) {
		o.CreatedBefore = t
	}
}

func RemoveClass(className string) RemovalOption {
	return func(o *RemovalOptions) {
		o.ClassName = className
	}
}

func KeepLatest(n int) RemovalOption {
	return func(o *RemovalOptions) {
		o.KeepLatest = n
	}
}

func ApplyRemovalOptions(opts ...RemovalOption) RemovalOptions {
	var options RemovalOptions
	for _, opt := range opts {
		opt(&options)
	}

	return options
}

// Removable reports whether a run is removed. index is the position of the run among the runs of its class, newest
// first.
func (o RemovalOptions) Removable(run *ClassRun, index int) bool {
	if o.ClassName != "" && run.ClassName != o.ClassName {
		return false
	}

	if index < o.KeepLatest {
		return false
	}

	if !o.CreatedBefore.IsZero() && !run.CreatedAt.Before(o.CreatedBefore) {
		return false
	}

	return true
}
