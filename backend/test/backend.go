package test

import (
	"testing"
	"time"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/core"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	orderProcess = core.ProcessDefinition{ID: "order-process:1:1", Key: "order-process", Name: "Order", Version: 1, DeploymentID: "d1"}
	discount     = core.DecisionDefinition{ID: "discount:1:2", Key: "discount", Name: "Discount", Version: 1, DeploymentID: "d1"}
)

// newClassRun creates a run with coverage for one finished and one unfinished test method.
func newClassRun(t *testing.T, className string, createdAt time.Time) *backend.ClassRun {
	t.Helper()

	finished := coverage.NewMethodCoverage("d1", "testHappyPath", createdAt.Add(-time.Second))
	finished.AddProcessCoverage(coverage.NewProcessCoverage(orderProcess))
	finished.AddDecisionCoverage(coverage.NewDecisionCoverage(discount))

	a := core.NewCoveredFlowNode("order-process", "A", "i1", "userTask")
	a.ExecutionStartCounter = 1
	require.NoError(t, finished.AddCoveredElement(a))

	aEnd := core.NewCoveredFlowNode("order-process", "A", "i1", "userTask")
	aEnd.ExecutionEndCounter = 2
	_, err := finished.EndCoveredElement(aEnd, coverage.EndWithoutStartFail)
	require.NoError(t, err)

	flow := core.NewCoveredSequenceFlow("order-process", "T")
	flow.ExecutionStartCounter = 3
	require.NoError(t, finished.AddCoveredElement(flow))

	require.NoError(t, finished.AddCoveredDmnRules([]core.CoveredDmnRule{{DecisionDefinitionKey: "discount", RuleID: "r1"}}))
	finished.Finish(createdAt)

	running := coverage.NewMethodCoverage("d2", "testRunning", createdAt)
	running.AddProcessCoverage(coverage.NewProcessCoverage(orderProcess))

	b := core.NewCoveredFlowNode("order-process", "B", "i2", "serviceTask")
	b.ExecutionStartCounter = 4
	require.NoError(t, running.AddCoveredElement(b))

	cc := coverage.NewClassCoverage()
	cc.AddTestMethodCoverage("testHappyPath", finished)
	cc.AddTestMethodCoverage("testRunning", running)

	return &backend.ClassRun{
		ID:        uuid.NewString(),
		ClassName: className,
		CreatedAt: createdAt,
		Coverage:  cc.Snapshot(),
	}
}

// requireSameCoverage checks that a stored run restores to the coverage it was saved with.
func requireSameCoverage(t *testing.T, want, got *backend.ClassRun) {
	t.Helper()

	require.NotNil(t, got.Coverage)

	wc := coverage.RestoreClassCoverage(want.Coverage)
	gc := coverage.RestoreClassCoverage(got.Coverage)

	require.Equal(t, wc.TestMethodNames(), gc.TestMethodNames())
	require.Equal(t, wc.ProcessDefinitions(), gc.ProcessDefinitions())
	require.Equal(t, wc.DecisionDefinitions(), gc.DecisionDefinitions())
	require.Equal(t, wc.CoveredFlowNodes("order-process"), gc.CoveredFlowNodes("order-process"))
	require.Equal(t, wc.CoveredSequenceFlows("order-process"), gc.CoveredSequenceFlows("order-process"))
	require.Equal(t, wc.CoveredDecisionRules("discount"), gc.CoveredDecisionRules("discount"))

	for _, name := range wc.TestMethodNames() {
		wm, err := wc.TestMethodCoverage(name)
		require.NoError(t, err)
		gm, err := gc.TestMethodCoverage(name)
		require.NoError(t, err)

		require.Equal(t, wm.Finished(), gm.Finished())
		require.True(t, wm.StartedAt().Equal(gm.StartedAt()))
		require.True(t, wm.FinishedAt().Equal(gm.FinishedAt()))
		require.Equal(t, wm.DeploymentID(), gm.DeploymentID())
	}
}

func coverageOf(t *testing.T, run *backend.ClassRun, testMethodName string) *coverage.MethodCoverage {
	t.Helper()

	mc, err := coverage.RestoreClassCoverage(run.Coverage).TestMethodCoverage(testMethodName)
	require.NoError(t, err)

	return mc
}
