package coverage

import (
	"testing"
	"time"

	"github.com/flowcov/go-flowcov/core"
	"github.com/stretchr/testify/require"
)

var paymentProcess = core.ProcessDefinition{ID: "payment:1:ghi", Key: "payment", Version: 1}

func newClassCoverage(t *testing.T, methods ...string) *ClassCoverage {
	t.Helper()

	cc := NewClassCoverage()
	for _, m := range methods {
		mc := NewMethodCoverage("deployment-"+m, m, time.Now())
		mc.AddProcessCoverage(NewProcessCoverage(orderProcess))
		mc.AddDecisionCoverage(NewDecisionCoverage(discountDecision))
		cc.AddTestMethodCoverage(m, mc)
	}

	return cc
}

func Test_ClassCoverage_UnknownMethodFails(t *testing.T) {
	cc := newClassCoverage(t, "testA")

	_, err := cc.TestMethodCoverage("testB")
	var tnf *ErrTestMethodNotFound
	require.ErrorAs(t, err, &tnf)
	require.Equal(t, "testB", tnf.TestMethodName)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, cc.AddCoveredElement("testB", flowNode("order-process", "A", "i1", 1, 0)), ErrNotFound)
	_, err = cc.EndCoveredElement("testB", flowNode("order-process", "A", "i1", 0, 2), EndWithoutStartRecord)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, cc.AddCoveredDmnRules("testB", nil), ErrNotFound)
}

func Test_ClassCoverage_AddTestMethodCoverageOverwrites(t *testing.T) {
	cc := newClassCoverage(t, "testA")
	require.NoError(t, cc.AddCoveredElement("testA", flowNode("order-process", "A", "i1", 1, 0)))

	replacement := NewMethodCoverage("deployment-2", "testA", time.Now())
	replacement.AddProcessCoverage(NewProcessCoverage(orderProcess))
	cc.AddTestMethodCoverage("testA", replacement)

	mc, err := cc.TestMethodCoverage("testA")
	require.NoError(t, err)
	require.Same(t, replacement, mc)
	require.Empty(t, cc.CoveredFlowNodes("order-process"))
}

func Test_ClassCoverage_UnionOfMethods(t *testing.T) {
	cc := newClassCoverage(t, "testA", "testB")

	require.NoError(t, cc.AddCoveredElement("testA", flowNode("order-process", "A", "a1", 1, 0)))
	require.NoError(t, cc.AddCoveredElement("testB", flowNode("order-process", "A", "b1", 2, 0)))
	require.NoError(t, cc.AddCoveredElement("testB", flowNode("order-process", "B", "b2", 3, 0)))

	sfA := core.NewCoveredSequenceFlow("order-process", "T1")
	sfA.ExecutionStartCounter = 4
	require.NoError(t, cc.AddCoveredElement("testA", sfA))

	require.NoError(t, cc.AddCoveredDmnRules("testA", []core.CoveredDmnRule{{DecisionDefinitionKey: "discount", RuleID: "r1"}}))
	require.NoError(t, cc.AddCoveredDmnRules("testB", []core.CoveredDmnRule{
		{DecisionDefinitionKey: "discount", RuleID: "r1"},
		{DecisionDefinitionKey: "discount", RuleID: "r2"},
	}))

	var wantNodes []core.CoveredFlowNode
	var wantFlows []core.CoveredSequenceFlow
	for _, name := range cc.TestMethodNames() {
		mc, err := cc.TestMethodCoverage(name)
		require.NoError(t, err)

		wantNodes = append(wantNodes, mc.CoveredFlowNodes("order-process")...)
		wantFlows = append(wantFlows, mc.CoveredSequenceFlows("order-process")...)
	}

	require.ElementsMatch(t, wantNodes, cc.CoveredFlowNodes("order-process"))
	require.ElementsMatch(t, wantFlows, cc.CoveredSequenceFlows("order-process"))
	require.Len(t, cc.CoveredFlowNodes("order-process"), 3)

	require.Equal(t, []core.CoveredDmnRule{
		{DecisionDefinitionKey: "discount", RuleID: "r1"},
		{DecisionDefinitionKey: "discount", RuleID: "r2"},
	}, cc.CoveredDecisionRules("discount"))
}

func Test_ClassCoverage_OrderedByCounter(t *testing.T) {
	cc := newClassCoverage(t, "testA", "testB")

	require.NoError(t, cc.AddCoveredElement("testB", flowNode("order-process", "A", "b1", 1, 0)))
	require.NoError(t, cc.AddCoveredElement("testA", flowNode("order-process", "A", "a1", 2, 0)))

	nodes := cc.CoveredFlowNodes("order-process")
	require.Len(t, nodes, 2)
	require.Equal(t, "b1", nodes[0].ActivityInstanceID)
	require.Equal(t, "a1", nodes[1].ActivityInstanceID)
}

func Test_ClassCoverage_DistinctFlowNodes(t *testing.T) {
	cc := newClassCoverage(t, "testA", "testB")

	require.NoError(t, cc.AddCoveredElement("testA", flowNode("order-process", "A", "a1", 1, 0)))
	require.NoError(t, cc.AddCoveredElement("testB", flowNode("order-process", "A", "b1", 2, 0)))

	require.Len(t, cc.CoveredFlowNodes("order-process"), 2)

	distinct := DistinctFlowNodes(cc, "order-process")
	require.Equal(t, []core.CoveredFlowNode{
		{ProcessDefinitionKey: "order-process", ElementID: "A", ElementType: "task"},
	}, distinct)
}

func Test_ClassCoverage_DistinctSequenceFlows(t *testing.T) {
	cc := newClassCoverage(t, "testA", "testB")

	for i, m := range []string{"testA", "testB"} {
		f := core.NewCoveredSequenceFlow("order-process", "T")
		f.ExecutionStartCounter = int64(i + 1)
		require.NoError(t, cc.AddCoveredElement(m, f))
	}

	require.Len(t, cc.CoveredSequenceFlows("order-process"), 2)
	require.Equal(t, []core.CoveredSequenceFlow{
		{ProcessDefinitionKey: "order-process", TransitionID: "T"},
	}, DistinctSequenceFlows(cc, "order-process"))
}

func Test_ClassCoverage_Definitions(t *testing.T) {
	cc := newClassCoverage(t, "testA", "testB")

	mc := NewMethodCoverage("deployment-c", "testC", time.Now())
	mc.AddProcessCoverage(NewProcessCoverage(paymentProcess))
	cc.AddTestMethodCoverage("testC", mc)

	require.Equal(t, []core.ProcessDefinition{orderProcess, paymentProcess}, cc.ProcessDefinitions())
	require.Equal(t, []core.DecisionDefinition{discountDecision}, cc.DecisionDefinitions())
}

func Test_ClassCoverage_EmptyQueries(t *testing.T) {
	cc := NewClassCoverage()

	require.Empty(t, cc.TestMethodNames())
	require.Empty(t, cc.CoveredFlowNodes("order-process"))
	require.Empty(t, cc.CoveredSequenceFlows("order-process"))
	require.Empty(t, cc.CoveredDecisionRules("discount"))
	require.Empty(t, cc.ProcessDefinitions())
	require.Empty(t, cc.DecisionDefinitions())
}
