package tester

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/backend/memory"
	"github.com/flowcov/go-flowcov/core"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/listener"
	"github.com/stretchr/testify/require"
)

var (
	orderProcess = &core.ProcessDefinition{ID: "order-process:1:1", Key: "order-process", Version: 1}
	discount     = &core.DecisionDefinition{ID: "discount:1:2", Key: "discount", Version: 1}
)

var resolver = listener.ResolverFunc(func(ctx context.Context, id string) (string, error) {
	if id == orderProcess.ID {
		return orderProcess.Key, nil
	}

	return "", fmt.Errorf("unknown process definition %s", id)
})

func recordHappyPath(t *testing.T, l *listener.ExecutionListener) {
	t.Helper()

	ctx := context.Background()

	for _, e := range []listener.Execution{
		{EventName: listener.EventStart, ProcessDefinitionID: orderProcess.ID, ActivityInstanceID: "i1", ElementID: "StartEvent", ElementType: listener.ElementTypeStartEvent},
		{EventName: listener.EventEnd, ProcessDefinitionID: orderProcess.ID, ActivityInstanceID: "i1", ElementID: "StartEvent", ElementType: listener.ElementTypeStartEvent},
		{EventName: listener.EventTake, ProcessDefinitionID: orderProcess.ID, TransitionID: "Flow_1"},
		{EventName: listener.EventStart, ProcessDefinitionID: orderProcess.ID, ActivityInstanceID: "i2", ElementID: "ApproveOrder", ElementType: listener.ElementTypeUserTask},
	} {
		require.NoError(t, l.Notify(ctx, e))
	}

	require.NoError(t, l.NotifyDecision(ctx, listener.DecisionEvaluation{
		DecisionDefinitionKey: discount.Key,
		MatchedRuleIDs:        []string{"rule-1"},
	}))
}

func Test_ClassRecorder_StartMethod(t *testing.T) {
	c := clock.NewMock()
	cr := NewClassRecorder("OrderProcessTest", WithClock(c))
	l := cr.Listener(resolver)

	var methodName string

	t.Run("happy path", func(t *testing.T) {
		s := cr.StartMethod(t, "", []*core.ProcessDefinition{orderProcess}, []*core.DecisionDefinition{discount})
		methodName = s.TestMethodName()

		require.Equal(t, t.Name(), methodName)
		require.Equal(t, methodName, cr.RunState().CurrentTestMethodName())

		recordHappyPath(t, l)

		c.Add(time.Second)
	})

	// The cleanup finished the method and cleared the current one
	require.Equal(t, "", cr.RunState().CurrentTestMethodName())

	mc, err := cr.Coverage().TestMethodCoverage(methodName)
	require.NoError(t, err)
	require.True(t, mc.Finished())
	require.Equal(t, time.Second, mc.FinishedAt().Sub(mc.StartedAt()))
	require.NotEmpty(t, mc.DeploymentID())

	AssertFlowNodesCovered(t, cr.Coverage(), orderProcess.Key, "StartEvent", "ApproveOrder")
	AssertSequenceFlowsCovered(t, cr.Coverage(), orderProcess.Key, "Flow_1")
	AssertRulesCovered(t, cr.Coverage(), discount.Key, "rule-1")

	// Nothing is current anymore
	err = l.Notify(context.Background(), listener.Execution{EventName: listener.EventTake, ProcessDefinitionID: orderProcess.ID, TransitionID: "Flow_2"})
	require.ErrorIs(t, err, coverage.ErrNotFound)
}

func Test_ClassRecorder_KeepsDeploymentID(t *testing.T) {
	cr := NewClassRecorder("OrderProcessTest")

	var methodName string
	t.Run("deployment", func(t *testing.T) {
		methodName = cr.StartMethod(t, "deployment-1", []*core.ProcessDefinition{orderProcess}, nil).TestMethodName()
	})

	mc, err := cr.Coverage().TestMethodCoverage(methodName)
	require.NoError(t, err)
	require.Equal(t, "deployment-1", mc.DeploymentID())
}

func Test_ClassRecorder_Exclusion(t *testing.T) {
	cr := NewClassRecorder("OrderProcessTest", WithExcludedProcessDefinitionKeys(orderProcess.Key))
	l := cr.Listener(resolver)

	t.Run("excluded", func(t *testing.T) {
		cr.StartMethod(t, "", []*core.ProcessDefinition{orderProcess}, []*core.DecisionDefinition{discount})
		recordHappyPath(t, l)
	})

	AssertFlowNodesNotCovered(t, cr.Coverage(), orderProcess.Key, "StartEvent", "ApproveOrder")
	require.Empty(t, cr.Coverage().CoveredSequenceFlows(orderProcess.Key))

	// Rules are never excluded
	AssertRulesCovered(t, cr.Coverage(), discount.Key, "rule-1")

	// Excluded elements still consumed counters
	require.Equal(t, int64(4), cr.RunState().Counter())
}

func Test_ClassRecorder_EndWithoutStartPolicy(t *testing.T) {
	cr := NewClassRecorder("OrderProcessTest", WithEndWithoutStartPolicy(coverage.EndWithoutStartFail))
	l := cr.Listener(resolver)

	t.Run("fail", func(t *testing.T) {
		cr.StartMethod(t, "", []*core.ProcessDefinition{orderProcess}, nil)

		err := l.Notify(context.Background(), listener.Execution{
			EventName:           listener.EventEnd,
			ProcessDefinitionID: orderProcess.ID,
			ActivityInstanceID:  "i1",
			ElementID:           "ApproveOrder",
			ElementType:         listener.ElementTypeUserTask,
		})
		require.ErrorIs(t, err, coverage.ErrNoMatchingStart)
	})
}

func Test_ClassRecorder_Save(t *testing.T) {
	ctx := context.Background()

	c := clock.NewMock()
	c.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	b := memory.NewMemoryBackend()
	cr := NewClassRecorder("OrderProcessTest", WithClock(c), WithBackend(b))
	l := cr.Listener(resolver)

	t.Run("first", func(t *testing.T) {
		cr.StartMethod(t, "", []*core.ProcessDefinition{orderProcess}, []*core.DecisionDefinition{discount})
		recordHappyPath(t, l)
	})

	t.Run("second", func(t *testing.T) {
		cr.StartMethod(t, "", []*core.ProcessDefinition{orderProcess}, nil)
	})

	run, err := cr.Save(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.Equal(t, "OrderProcessTest", run.ClassName)
	require.Equal(t, c.Now(), run.CreatedAt)
	require.Equal(t, 2, run.MethodCount)

	stored, err := b.GetClassRun(ctx, run.ID)
	require.NoError(t, err)

	restored := coverage.RestoreClassCoverage(stored.Coverage)
	AssertFlowNodesCovered(t, restored, orderProcess.Key, "StartEvent", "ApproveOrder")
	AssertRulesCovered(t, restored, discount.Key, "rule-1")

	// Every save is a separate run
	again, err := cr.Save(ctx)
	require.NoError(t, err)
	require.NotEqual(t, run.ID, again.ID)

	runs, err := b.ListClassRuns(ctx, "OrderProcessTest")
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func Test_ClassRecorder_SaveWithoutBackend(t *testing.T) {
	cr := NewClassRecorder("OrderProcessTest")

	_, err := cr.Save(context.Background())
	require.ErrorIs(t, err, ErrNoBackend)
}

type failingBackend struct {
	backend.Backend
}

func (failingBackend) SaveClassRun(ctx context.Context, run *backend.ClassRun) error {
	return backend.ErrRunAlreadyExists
}

func Test_ClassRecorder_SaveError(t *testing.T) {
	cr := NewClassRecorder("OrderProcessTest", WithBackend(failingBackend{}))

	_, err := cr.Save(context.Background())
	require.ErrorIs(t, err, backend.ErrRunAlreadyExists)
}

type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func Test_Assertions(t *testing.T) {
	cr := NewClassRecorder("OrderProcessTest")
	l := cr.Listener(resolver)

	t.Run("record", func(t *testing.T) {
		cr.StartMethod(t, "", []*core.ProcessDefinition{orderProcess}, []*core.DecisionDefinition{discount})
		recordHappyPath(t, l)
	})

	require.Equal(t, []string{"StartEvent", "ApproveOrder"}, CoveredFlowNodeIDs(cr.Coverage(), orderProcess.Key))

	tests := []struct {
		name string
		f    func(rt *recordingT) bool
		ok   bool
	}{
		{"flow nodes covered", func(rt *recordingT) bool {
			return AssertFlowNodesCovered(rt, cr.Coverage(), orderProcess.Key, "ApproveOrder")
		}, true},
		{"flow node missing", func(rt *recordingT) bool {
			return AssertFlowNodesCovered(rt, cr.Coverage(), orderProcess.Key, "ShipOrder")
		}, false},
		{"unknown process", func(rt *recordingT) bool {
			return AssertFlowNodesCovered(rt, cr.Coverage(), "unknown", "StartEvent")
		}, false},
		{"flow node not covered", func(rt *recordingT) bool {
			return AssertFlowNodesNotCovered(rt, cr.Coverage(), orderProcess.Key, "ShipOrder")
		}, true},
		{"flow node unexpectedly covered", func(rt *recordingT) bool {
			return AssertFlowNodesNotCovered(rt, cr.Coverage(), orderProcess.Key, "ShipOrder", "StartEvent")
		}, false},
		{"sequence flow missing", func(rt *recordingT) bool {
			return AssertSequenceFlowsCovered(rt, cr.Coverage(), orderProcess.Key, "Flow_1", "Flow_2")
		}, false},
		{"rule missing", func(rt *recordingT) bool {
			return AssertRulesCovered(rt, cr.Coverage(), discount.Key, "rule-2")
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &recordingT{}

			require.Equal(t, tt.ok, tt.f(rt))
			require.Equal(t, tt.ok, len(rt.errors) == 0)
		})
	}
}
