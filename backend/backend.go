package backend

import (
	"context"
	"errors"
	"time"

	"github.com/flowcov/go-flowcov/coverage"
)

var (
	ErrRunNotFound      = errors.New("class run not found")
	ErrRunAlreadyExists = errors.New("class run already exists")
)

const TracerName = "flowcov-backend"

// ClassRun is the persisted coverage of one test class run.
type ClassRun struct {
	ID          string                  `json:"id"`
	ClassName   string                  `json:"class_name"`
	CreatedAt   time.Time               `json:"created_at"`
	MethodCount int                     `json:"method_count"`
	Coverage    *coverage.ClassSnapshot `json:"coverage,omitempty"`
}

// Summary returns a copy of the run without its coverage. MethodCount is taken from the coverage if present.
func Summary(run *ClassRun) *ClassRun {
	s := *run
	if run.Coverage != nil {
		s.MethodCount = len(run.Coverage.Methods)
	}
	s.Coverage = nil

	return &s
}

type Backend interface {
	// SaveClassRun stores a new class run. Saving a run with an existing ID returns ErrRunAlreadyExists.
	SaveClassRun(ctx context.Context, run *ClassRun) error

	// GetClassRun returns the run with its coverage, or ErrRunNotFound
	GetClassRun(ctx context.Context, id string) (*ClassRun, error)

	// ListClassRuns returns the runs of the given class, newest first. An empty class name lists all runs. The
	// coverage of listed runs is not loaded.
	ListClassRuns(ctx context.Context, className string) ([]*ClassRun, error)

	// RemoveClassRuns removes stored runs and returns how many were removed
	RemoveClassRuns(ctx context.Context, options ...RemovalOption) (int, error)

	// GetStats returns stats about the stored runs
	GetStats(ctx context.Context) (*Stats, error)

	Close() error
}

// ValidateRun checks that a run can be stored.
func ValidateRun(run *ClassRun) error {
	if run == nil || run.ID == "" {
		return errors.New("class run requires an id")
	}

	if run.Coverage == nil {
		return errors.New("class run requires coverage")
	}

	return nil
}
