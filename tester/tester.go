package tester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/core"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/listener"
	"github.com/flowcov/go-flowcov/log"
	"github.com/flowcov/go-flowcov/runstate"
	"github.com/google/uuid"
)

var ErrNoBackend = errors.New("no backend configured")

// ClassRecorder records the coverage of the test methods of one test class.
type ClassRecorder struct {
	rs      *runstate.RunState
	backend backend.Backend
	clock   clock.Clock
	logger  *slog.Logger
}

func NewClassRecorder(className string, opts ...Option) *ClassRecorder {
	options := &options{
		Logger: slog.Default(),
		Clock:  clock.New(),
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	if options.Clock == nil {
		options.Clock = clock.New()
	}

	return &ClassRecorder{
		rs:      runstate.New(className, options.runStateOptions...),
		backend: options.Backend,
		clock:   options.Clock,
		logger:  options.Logger.With(log.ClassNameKey, className),
	}
}

func (cr *ClassRecorder) RunState() *runstate.RunState {
	return cr.rs
}

func (cr *ClassRecorder) Coverage() *coverage.ClassCoverage {
	return cr.rs.ClassCoverage()
}

// StartMethod starts recording the coverage of the running test. The test name is the method name, an empty
// deploymentID is replaced with a generated one. The returned session is finished when the test completes.
func (cr *ClassRecorder) StartMethod(
	t testing.TB,
	deploymentID string,
	processes []*core.ProcessDefinition,
	decisions []*core.DecisionDefinition,
) *runstate.Session {
	t.Helper()

	if deploymentID == "" {
		deploymentID = uuid.NewString()
	}

	s := cr.rs.InitializeTestMethodCoverage(deploymentID, processes, decisions, t.Name())
	s.Activate()

	t.Cleanup(func() {
		if err := s.Finish(context.Background()); err != nil {
			t.Errorf("finishing coverage of %s: %v", s.TestMethodName(), err)
		}

		if cr.rs.CurrentTestMethodName() == s.TestMethodName() {
			cr.rs.SetCurrentTestMethodName("")
		}
	})

	return s
}

// Listener returns an execution listener recording into the current test method.
func (cr *ClassRecorder) Listener(resolver listener.DefinitionResolver, opts ...listener.Option) *listener.ExecutionListener {
	opts = append([]listener.Option{listener.WithLogger(cr.logger)}, opts...)

	return listener.NewExecutionListener(cr.rs, resolver, opts...)
}

// Save persists the coverage recorded so far as a new class run.
func (cr *ClassRecorder) Save(ctx context.Context) (*backend.ClassRun, error) {
	if cr.backend == nil {
		return nil, ErrNoBackend
	}

	run := &backend.ClassRun{
		ID:        uuid.NewString(),
		ClassName: cr.rs.TestClassName(),
		CreatedAt: cr.clock.Now(),
		Coverage:  cr.rs.ClassCoverage().Snapshot(),
	}
	run.MethodCount = len(run.Coverage.Methods)

	if err := cr.backend.SaveClassRun(ctx, run); err != nil {
		return nil, fmt.Errorf("saving class run: %w", err)
	}

	cr.logger.Info("saved coverage run", log.RunIDKey, run.ID, log.MethodCountKey, run.MethodCount)

	return run, nil
}
