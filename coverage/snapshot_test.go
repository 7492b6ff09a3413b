package coverage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flowcov/go-flowcov/core"
	"github.com/stretchr/testify/require"
)

func Test_Snapshot_Restore(t *testing.T) {
	cc := newClassCoverage(t, "testA", "testB")

	require.NoError(t, cc.AddCoveredElement("testA", flowNode("order-process", "A", "a1", 1, 0)))
	_, err := cc.EndCoveredElement("testA", flowNode("order-process", "A", "a1", 0, 2), EndWithoutStartRecord)
	require.NoError(t, err)
	require.NoError(t, cc.AddCoveredElement("testB", flowNode("order-process", "B", "b1", 3, 0)))
	require.NoError(t, cc.AddCoveredDmnRules("testB", []core.CoveredDmnRule{{DecisionDefinitionKey: "discount", RuleID: "r1"}}))

	mc, err := cc.TestMethodCoverage("testA")
	require.NoError(t, err)
	mc.Finish(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	data, err := json.Marshal(cc.Snapshot())
	require.NoError(t, err)

	var s ClassSnapshot
	require.NoError(t, json.Unmarshal(data, &s))

	restored := RestoreClassCoverage(&s)

	require.Equal(t, cc.TestMethodNames(), restored.TestMethodNames())
	require.Equal(t, cc.CoveredFlowNodes("order-process"), restored.CoveredFlowNodes("order-process"))
	require.Equal(t, cc.CoveredDecisionRules("discount"), restored.CoveredDecisionRules("discount"))
	require.Equal(t, cc.ProcessDefinitions(), restored.ProcessDefinitions())

	rmA, err := restored.TestMethodCoverage("testA")
	require.NoError(t, err)
	require.True(t, rmA.Finished())

	// Running occurrences of unfinished methods can still be ended
	rmB, err := restored.TestMethodCoverage("testB")
	require.NoError(t, err)
	outcome, err := rmB.EndCoveredElement(flowNode("order-process", "B", "b1", 0, 4), EndWithoutStartFail)
	require.NoError(t, err)
	require.Equal(t, EndMatched, outcome)
}

func Test_RestoreClassCoverage_Nil(t *testing.T) {
	require.Empty(t, RestoreClassCoverage(nil).TestMethodNames())
}
