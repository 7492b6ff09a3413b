package runstate

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/flowcov/go-flowcov/core"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/internal/metrickeys"
	"github.com/flowcov/go-flowcov/log"
	"github.com/flowcov/go-flowcov/metrics"
	"go.opentelemetry.io/otel/trace"
)

// RunState tracks the coverage run of a test class. It stamps every observed element with a run-wide counter,
// drops elements of excluded process definitions, and files the rest into the coverage of a test method.
//
// Elements are routed either through a Session, or through the RunState itself, which uses the current test method
// name. The latter only works as long as one test method runs at a time.
type RunState struct {
	options Options

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics metrics.Client

	classCoverage *coverage.ClassCoverage

	mu            sync.RWMutex
	testClassName string

	// counter is the order stamp of the last processed element
	counter atomic.Int64

	currentTestMethodName atomic.Pointer[string]

	excluded atomic.Pointer[map[string]struct{}]
}

func New(testClassName string, opts ...Option) *RunState {
	options := ApplyOptions(opts...)

	rs := &RunState{
		options:       options,
		logger:        options.Logger.With(log.ClassNameKey, testClassName),
		tracer:        options.TracerProvider.Tracer(TracerName),
		metrics:       options.Metrics,
		classCoverage: coverage.NewClassCoverage(),
		testClassName: testClassName,
	}

	rs.SetExcludedProcessDefinitionKeys(options.ExcludedProcessDefinitionKeys)

	return rs
}

func (rs *RunState) TestClassName() string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	return rs.testClassName
}

func (rs *RunState) SetTestClassName(name string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.testClassName = name
}

// ClassCoverage returns the coverage of all test methods of the run.
func (rs *RunState) ClassCoverage() *coverage.ClassCoverage {
	return rs.classCoverage
}

// Counter returns the order stamp assigned last.
func (rs *RunState) Counter() int64 {
	return rs.counter.Load()
}

// InitializeTestMethodCoverage creates the coverage for a test method with the process and decision definitions of
// its deployment. It has to be called before any element of the method is recorded. Initializing a method again
// replaces its previous coverage.
func (rs *RunState) InitializeTestMethodCoverage(
	deploymentID string,
	processDefinitions []*core.ProcessDefinition,
	decisionDefinitions []*core.DecisionDefinition,
	testMethodName string,
) *Session {
	mc := coverage.NewMethodCoverage(deploymentID, testMethodName, rs.options.Clock.Now())

	for _, pd := range processDefinitions {
		if pd != nil {
			mc.AddProcessCoverage(coverage.NewProcessCoverage(*pd))
		}
	}

	for _, dd := range decisionDefinitions {
		if dd != nil {
			mc.AddDecisionCoverage(coverage.NewDecisionCoverage(*dd))
		}
	}

	rs.classCoverage.AddTestMethodCoverage(testMethodName, mc)

	rs.metrics.Counter(metrickeys.MethodInitialized, metrics.Tags{}, 1)
	rs.logger.Debug("initialized test method coverage",
		log.MethodNameKey, testMethodName,
		log.DeploymentIDKey, deploymentID,
	)

	return &Session{rs: rs, testMethodName: testMethodName}
}

// Session returns a handle for a test method that was already initialized.
func (rs *RunState) Session(testMethodName string) (*Session, error) {
	if _, err := rs.classCoverage.TestMethodCoverage(testMethodName); err != nil {
		return nil, err
	}

	return &Session{rs: rs, testMethodName: testMethodName}, nil
}

// SetCurrentTestMethodName sets the test method elements recorded through the RunState are attributed to.
func (rs *RunState) SetCurrentTestMethodName(name string) {
	rs.currentTestMethodName.Store(&name)
}

func (rs *RunState) CurrentTestMethodName() string {
	if name := rs.currentTestMethodName.Load(); name != nil {
		return *name
	}

	return ""
}

// CurrentTestMethodCoverage returns the coverage of the current test method.
func (rs *RunState) CurrentTestMethodCoverage() (*coverage.MethodCoverage, error) {
	return rs.classCoverage.TestMethodCoverage(rs.CurrentTestMethodName())
}

// TestMethodCoverage returns the coverage of the given test method.
func (rs *RunState) TestMethodCoverage(testMethodName string) (*coverage.MethodCoverage, error) {
	return rs.classCoverage.TestMethodCoverage(testMethodName)
}

// SetExcludedProcessDefinitionKeys replaces the set of excluded process definition keys. nil excludes nothing.
func (rs *RunState) SetExcludedProcessDefinitionKeys(keys []string) {
	if keys == nil {
		rs.excluded.Store(nil)
		return
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}

	rs.excluded.Store(&set)
}

// ExcludedProcessDefinitionKeys returns the excluded keys, sorted, or nil if nothing is excluded.
func (rs *RunState) ExcludedProcessDefinitionKeys() []string {
	set := rs.excluded.Load()
	if set == nil {
		return nil
	}

	keys := make([]string, 0, len(*set))
	for k := range *set {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

func (rs *RunState) isExcluded(e core.Element) bool {
	set := rs.excluded.Load()
	if set == nil {
		return false
	}

	_, ok := (*set)[e.DefinitionKey()]
	return ok
}

// AddCoveredElement records a started element for the current test method.
func (rs *RunState) AddCoveredElement(e core.Element) error {
	return rs.addCoveredElement(rs.CurrentTestMethodName(), e)
}

// EndCoveredElement records the end of an element for the current test method.
func (rs *RunState) EndCoveredElement(e core.Element) error {
	return rs.endCoveredElement(rs.CurrentTestMethodName(), e)
}

// AddCoveredRules records matched decision rules for the current test method.
func (rs *RunState) AddCoveredRules(rules []core.CoveredDmnRule) error {
	return rs.addCoveredRules(rs.CurrentTestMethodName(), rules)
}

func (rs *RunState) addCoveredElement(testMethodName string, e core.Element) error {
	if e == nil {
		return core.ErrUnknownElement
	}

	n := rs.counter.Add(1)

	switch e := e.(type) {
	case *core.CoveredFlowNode:
		e.ExecutionStartCounter = n
	case *core.CoveredSequenceFlow:
		e.ExecutionStartCounter = n
	case *core.CoveredDmnRule:
		// Rules are kept as a set and carry no order stamp
	}

	tags := metrics.Tags{metrickeys.ElementKind: e.Kind().String()}

	if rs.isExcluded(e) {
		rs.metrics.Counter(metrickeys.ElementExcluded, tags, 1)
		return nil
	}

	if err := rs.classCoverage.AddCoveredElement(testMethodName, e); err != nil {
		rs.metrics.Counter(metrickeys.ElementRejected, tags, 1)
		return err
	}

	rs.metrics.Counter(metrickeys.ElementRecorded, tags, 1)
	rs.logger.Debug("added covered element",
		log.MethodNameKey, testMethodName,
		log.ElementKindKey, e.Kind().String(),
		log.CounterKey, n,
	)

	return nil
}

func (rs *RunState) endCoveredElement(testMethodName string, e core.Element) error {
	if e == nil {
		return core.ErrUnknownElement
	}

	n := rs.counter.Add(1)

	if fn, ok := e.(*core.CoveredFlowNode); ok {
		fn.ExecutionEndCounter = n
	}

	tags := metrics.Tags{metrickeys.ElementKind: e.Kind().String()}

	if rs.isExcluded(e) {
		rs.metrics.Counter(metrickeys.ElementExcluded, tags, 1)
		return nil
	}

	outcome, err := rs.classCoverage.EndCoveredElement(testMethodName, e, rs.options.EndWithoutStartPolicy)
	if err != nil {
		rs.metrics.Counter(metrickeys.ElementRejected, tags, 1)
		return err
	}

	rs.metrics.Counter(metrickeys.ElementEnded, tags.With(metrickeys.Outcome, outcome.String()), 1)

	switch outcome {
	case coverage.EndDuplicate:
		rs.logger.Debug("ignored repeated end of element",
			log.MethodNameKey, testMethodName,
			log.ElementKindKey, e.Kind().String(),
			log.CounterKey, n,
		)

	case coverage.EndRecordedWithoutStart, coverage.EndDroppedWithoutStart:
		rs.logger.Debug("ended element without recorded start",
			log.MethodNameKey, testMethodName,
			log.ElementKindKey, e.Kind().String(),
			log.CounterKey, n,
			log.OutcomeKey, outcome.String(),
		)
	}

	return nil
}

func (rs *RunState) addCoveredRules(testMethodName string, rules []core.CoveredDmnRule) error {
	if err := rs.classCoverage.AddCoveredDmnRules(testMethodName, rules); err != nil {
		return err
	}

	rs.metrics.Counter(metrickeys.RulesRecorded, metrics.Tags{}, int64(len(rules)))
	rs.logger.Debug("added covered rules",
		log.MethodNameKey, testMethodName,
		log.RuleCountKey, len(rules),
	)

	return nil
}
