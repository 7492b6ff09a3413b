package runstate

import (
	"context"

	"github.com/flowcov/go-flowcov/core"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/internal/metrickeys"
	"github.com/flowcov/go-flowcov/log"
	"github.com/flowcov/go-flowcov/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coverageAttrPrefix = log.NamespaceKey + ".coverage"

// Session routes elements to one test method, independent of the current test method of the RunState. Sessions of
// different test methods can record concurrently; they share the run-wide counter.
type Session struct {
	rs             *RunState
	testMethodName string
}

func (s *Session) TestMethodName() string {
	return s.testMethodName
}

// Activate makes this session's test method the current test method of the RunState.
func (s *Session) Activate() {
	s.rs.SetCurrentTestMethodName(s.testMethodName)
}

func (s *Session) AddCoveredElement(e core.Element) error {
	return s.rs.addCoveredElement(s.testMethodName, e)
}

func (s *Session) EndCoveredElement(e core.Element) error {
	return s.rs.endCoveredElement(s.testMethodName, e)
}

func (s *Session) AddCoveredRules(rules []core.CoveredDmnRule) error {
	return s.rs.addCoveredRules(s.testMethodName, rules)
}

// Coverage returns the method coverage the session records into.
func (s *Session) Coverage() (*coverage.MethodCoverage, error) {
	return s.rs.classCoverage.TestMethodCoverage(s.testMethodName)
}

// Finish completes the test method. Its coverage becomes read-only, and a span covering the test method is
// emitted. Finishing a session again has no effect.
func (s *Session) Finish(ctx context.Context) error {
	mc, err := s.Coverage()
	if err != nil {
		return err
	}

	if mc.Finished() {
		return nil
	}

	finishedAt := s.rs.options.Clock.Now()
	mc.Finish(finishedAt)

	var flowNodes, sequenceFlows, rules int
	for _, pd := range mc.ProcessDefinitions() {
		flowNodes += len(mc.CoveredFlowNodes(pd.Key))
		sequenceFlows += len(mc.CoveredSequenceFlows(pd.Key))
	}
	for _, dd := range mc.DecisionDefinitions() {
		rules += len(mc.CoveredDecisionRules(dd.Key))
	}

	_, span := s.rs.tracer.Start(ctx, "TestMethod: "+s.testMethodName,
		trace.WithTimestamp(mc.StartedAt()),
		trace.WithAttributes(
			attribute.String(log.ClassNameKey, s.rs.TestClassName()),
			attribute.String(log.MethodNameKey, s.testMethodName),
			attribute.String(log.DeploymentIDKey, mc.DeploymentID()),
			attribute.Int(coverageAttrPrefix+".flow_nodes", flowNodes),
			attribute.Int(coverageAttrPrefix+".sequence_flows", sequenceFlows),
			attribute.Int(coverageAttrPrefix+".rules", rules),
		),
	)
	span.End(trace.WithTimestamp(finishedAt))

	duration := finishedAt.Sub(mc.StartedAt())
	s.rs.metrics.Counter(metrickeys.MethodFinished, metrics.Tags{}, 1)
	s.rs.metrics.Timing(metrickeys.MethodDuration, metrics.Tags{}, duration)

	s.rs.logger.Debug("finished test method coverage",
		log.MethodNameKey, s.testMethodName,
		log.DurationKey, duration.Milliseconds(),
	)

	return nil
}
