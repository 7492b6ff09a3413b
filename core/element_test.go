package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Element_Kinds(t *testing.T) {
	tests := []struct {
		name    string
		element Element
		kind    ElementKind
		key     string
	}{
		{
			name:    "flow node",
			element: NewCoveredFlowNode("order-process", "TaskA", "TaskA:1", "userTask"),
			kind:    ElementKindFlowNode,
			key:     "order-process",
		},
		{
			name:    "sequence flow",
			element: NewCoveredSequenceFlow("order-process", "Flow_1"),
			kind:    ElementKindSequenceFlow,
			key:     "order-process",
		},
		{
			name:    "dmn rule",
			element: NewCoveredDmnRule("discount", "rule-2"),
			kind:    ElementKindDmnRule,
			key:     "discount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.kind, tt.element.Kind())
			require.Equal(t, tt.key, tt.element.DefinitionKey())
		})
	}
}

func Test_CoveredFlowNode_Ended(t *testing.T) {
	n := NewCoveredFlowNode("p", "A", "A:1", "task")
	require.False(t, n.Ended())

	n.ExecutionStartCounter = 1
	n.ExecutionEndCounter = 2
	require.True(t, n.Ended())
}

func Test_CoveredDmnRule_IsSetKey(t *testing.T) {
	set := map[CoveredDmnRule]struct{}{}
	set[*NewCoveredDmnRule("discount", "r1")] = struct{}{}
	set[*NewCoveredDmnRule("discount", "r1")] = struct{}{}
	set[*NewCoveredDmnRule("discount", "r2")] = struct{}{}

	require.Len(t, set, 2)
}

func Test_ElementKind_String(t *testing.T) {
	require.Equal(t, "FlowNode", ElementKindFlowNode.String())
	require.Equal(t, "ElementKind(42)", ElementKind(42).String())
}
