package core

import (
	"errors"
	"fmt"
)

// ErrUnknownElement is returned when an element is not one of the covered element kinds.
var ErrUnknownElement = errors.New("unknown covered element")

type ElementKind int

const (
	ElementKindFlowNode ElementKind = iota + 1
	ElementKindSequenceFlow
	ElementKindDmnRule
)

func (k ElementKind) String() string {
	switch k {
	case ElementKindFlowNode:
		return "FlowNode"
	case ElementKindSequenceFlow:
		return "SequenceFlow"
	case ElementKindDmnRule:
		return "DmnRule"
	}

	return fmt.Sprintf("ElementKind(%d)", int(k))
}

// Element is one observed unit of execution. The set of implementations is closed: *CoveredFlowNode,
// *CoveredSequenceFlow, and *CoveredDmnRule.
type Element interface {
	Kind() ElementKind

	// DefinitionKey returns the key of the process (or decision) definition the element belongs to.
	DefinitionKey() string

	element()
}

var (
	_ Element = (*CoveredFlowNode)(nil)
	_ Element = (*CoveredSequenceFlow)(nil)
	_ Element = (*CoveredDmnRule)(nil)
)

// CoveredFlowNode is one runtime occurrence of a flow node. Start and end notifications for the same occurrence
// share the ActivityInstanceID.
type CoveredFlowNode struct {
	ProcessDefinitionKey string `json:"process_definition_key"`

	// ElementID is the model-local id of the node
	ElementID string `json:"element_id"`

	// ActivityInstanceID identifies this runtime occurrence of the node
	ActivityInstanceID string `json:"activity_instance_id"`

	// ElementType is the kind of node, e.g. "userTask" or "exclusiveGateway"
	ElementType string `json:"element_type,omitempty"`

	ExecutionStartCounter int64 `json:"start_counter"`

	// ExecutionEndCounter is zero while the node is still running
	ExecutionEndCounter int64 `json:"end_counter,omitempty"`
}

func NewCoveredFlowNode(processDefinitionKey, elementID, activityInstanceID, elementType string) *CoveredFlowNode {
	return &CoveredFlowNode{
		ProcessDefinitionKey: processDefinitionKey,
		ElementID:            elementID,
		ActivityInstanceID:   activityInstanceID,
		ElementType:          elementType,
	}
}

func (*CoveredFlowNode) Kind() ElementKind { return ElementKindFlowNode }

func (n *CoveredFlowNode) DefinitionKey() string { return n.ProcessDefinitionKey }

func (*CoveredFlowNode) element() {}

// Ended returns true if the end of this occurrence has been observed.
func (n *CoveredFlowNode) Ended() bool {
	return n.ExecutionEndCounter != 0
}

func (n *CoveredFlowNode) String() string {
	return fmt.Sprintf("FlowNode(%s/%s, instance=%s, start=%d, end=%d)",
		n.ProcessDefinitionKey, n.ElementID, n.ActivityInstanceID, n.ExecutionStartCounter, n.ExecutionEndCounter)
}

// CoveredSequenceFlow is a taken transition. It is instantaneous and has no end.
type CoveredSequenceFlow struct {
	ProcessDefinitionKey string `json:"process_definition_key"`

	TransitionID string `json:"transition_id"`

	ExecutionStartCounter int64 `json:"start_counter"`
}

func NewCoveredSequenceFlow(processDefinitionKey, transitionID string) *CoveredSequenceFlow {
	return &CoveredSequenceFlow{
		ProcessDefinitionKey: processDefinitionKey,
		TransitionID:         transitionID,
	}
}

func (*CoveredSequenceFlow) Kind() ElementKind { return ElementKindSequenceFlow }

func (f *CoveredSequenceFlow) DefinitionKey() string { return f.ProcessDefinitionKey }

func (*CoveredSequenceFlow) element() {}

func (f *CoveredSequenceFlow) String() string {
	return fmt.Sprintf("SequenceFlow(%s/%s, counter=%d)", f.ProcessDefinitionKey, f.TransitionID, f.ExecutionStartCounter)
}

// CoveredDmnRule is a matched rule of a decision table. Rules are identified by value and kept as a set.
type CoveredDmnRule struct {
	DecisionDefinitionKey string `json:"decision_definition_key"`

	RuleID string `json:"rule_id"`
}

func NewCoveredDmnRule(decisionDefinitionKey, ruleID string) *CoveredDmnRule {
	return &CoveredDmnRule{
		DecisionDefinitionKey: decisionDefinitionKey,
		RuleID:                ruleID,
	}
}

func (*CoveredDmnRule) Kind() ElementKind { return ElementKindDmnRule }

func (r *CoveredDmnRule) DefinitionKey() string { return r.DecisionDefinitionKey }

func (*CoveredDmnRule) element() {}

func (r *CoveredDmnRule) String() string {
	return fmt.Sprintf("DmnRule(%s/%s)", r.DecisionDefinitionKey, r.RuleID)
}
