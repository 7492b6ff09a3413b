package coverage

import (
	"github.com/flowcov/go-flowcov/core"
)

// ProcessCoverage holds what was covered of one process definition during one test method. It is not safe for
// concurrent use on its own; the owning MethodCoverage serializes access.
type ProcessCoverage struct {
	definition core.ProcessDefinition

	flowNodes     []core.CoveredFlowNode
	sequenceFlows []core.CoveredSequenceFlow

	// running maps activity instance ids of occurrences without an end to their index in flowNodes
	running map[string]int

	// ended holds activity instance ids whose latest occurrence has ended
	ended map[string]struct{}
}

func NewProcessCoverage(definition core.ProcessDefinition) *ProcessCoverage {
	return &ProcessCoverage{
		definition: definition,
		running:    make(map[string]int),
		ended:      make(map[string]struct{}),
	}
}

func (pc *ProcessCoverage) Definition() core.ProcessDefinition {
	return pc.definition
}

// startFlowNode files a started occurrence. A second start for an occurrence that is still running is ignored and
// reported as false.
func (pc *ProcessCoverage) startFlowNode(n core.CoveredFlowNode) bool {
	if n.ActivityInstanceID != "" {
		if _, ok := pc.running[n.ActivityInstanceID]; ok {
			return false
		}
	}

	pc.flowNodes = append(pc.flowNodes, n)

	if n.ActivityInstanceID != "" {
		if n.Ended() {
			pc.ended[n.ActivityInstanceID] = struct{}{}
		} else {
			pc.running[n.ActivityInstanceID] = len(pc.flowNodes) - 1
			delete(pc.ended, n.ActivityInstanceID)
		}
	}

	return true
}

func (pc *ProcessCoverage) endFlowNode(n core.CoveredFlowNode, policy EndWithoutStartPolicy) (EndOutcome, error) {
	if idx, ok := pc.running[n.ActivityInstanceID]; ok {
		pc.flowNodes[idx].ExecutionEndCounter = n.ExecutionEndCounter
		delete(pc.running, n.ActivityInstanceID)
		pc.ended[n.ActivityInstanceID] = struct{}{}

		return EndMatched, nil
	}

	// A repeated end for an occurrence that already ended
	if _, ok := pc.ended[n.ActivityInstanceID]; ok && n.ActivityInstanceID != "" {
		return EndDuplicate, nil
	}

	switch policy {
	case EndWithoutStartDrop:
		return EndDroppedWithoutStart, nil

	case EndWithoutStartFail:
		return 0, ErrNoMatchingStart

	default:
		n.ExecutionStartCounter = 0
		pc.flowNodes = append(pc.flowNodes, n)

		if n.ActivityInstanceID != "" {
			pc.ended[n.ActivityInstanceID] = struct{}{}
		}

		return EndRecordedWithoutStart, nil
	}
}

func (pc *ProcessCoverage) addSequenceFlow(f core.CoveredSequenceFlow) {
	pc.sequenceFlows = append(pc.sequenceFlows, f)
}

func (pc *ProcessCoverage) coveredFlowNodes() []core.CoveredFlowNode {
	if len(pc.flowNodes) == 0 {
		return nil
	}

	return append([]core.CoveredFlowNode(nil), pc.flowNodes...)
}

func (pc *ProcessCoverage) coveredSequenceFlows() []core.CoveredSequenceFlow {
	if len(pc.sequenceFlows) == 0 {
		return nil
	}

	return append([]core.CoveredSequenceFlow(nil), pc.sequenceFlows...)
}

// DecisionCoverage holds the rules matched for one decision definition during one test method.
type DecisionCoverage struct {
	definition core.DecisionDefinition

	rules map[core.CoveredDmnRule]struct{}
}

func NewDecisionCoverage(definition core.DecisionDefinition) *DecisionCoverage {
	return &DecisionCoverage{
		definition: definition,
		rules:      make(map[core.CoveredDmnRule]struct{}),
	}
}

func (dc *DecisionCoverage) Definition() core.DecisionDefinition {
	return dc.definition
}

func (dc *DecisionCoverage) addRule(r core.CoveredDmnRule) {
	dc.rules[r] = struct{}{}
}
