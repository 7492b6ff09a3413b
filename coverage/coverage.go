package coverage

import (
	"cmp"
	"slices"

	"github.com/flowcov/go-flowcov/core"
)

// AggregatedCoverage is a coverage that may span multiple deployed process and decision definitions. It is
// implemented by MethodCoverage for a single test method and by ClassCoverage for all methods of a test class.
//
// Unknown keys yield empty results.
type AggregatedCoverage interface {
	// CoveredFlowNodes returns the flow node occurrences recorded for the given process definition key, ordered by
	// their start counter.
	CoveredFlowNodes(processDefinitionKey string) []core.CoveredFlowNode

	// CoveredSequenceFlows returns the taken transitions recorded for the given process definition key, ordered by
	// counter.
	CoveredSequenceFlows(processDefinitionKey string) []core.CoveredSequenceFlow

	// CoveredDecisionRules returns the distinct rules matched for the given decision definition key.
	CoveredDecisionRules(decisionDefinitionKey string) []core.CoveredDmnRule

	ProcessDefinitions() []core.ProcessDefinition

	DecisionDefinitions() []core.DecisionDefinition
}

var (
	_ AggregatedCoverage = (*MethodCoverage)(nil)
	_ AggregatedCoverage = (*ClassCoverage)(nil)
)

// DistinctFlowNodes returns one entry per model element covered for the given process definition key, in the order
// elements were first covered. Per-occurrence data (activity instance id and counters) is discarded.
func DistinctFlowNodes(ac AggregatedCoverage, processDefinitionKey string) []core.CoveredFlowNode {
	var result []core.CoveredFlowNode
	seen := make(map[string]struct{})

	for _, n := range ac.CoveredFlowNodes(processDefinitionKey) {
		if _, ok := seen[n.ElementID]; ok {
			continue
		}
		seen[n.ElementID] = struct{}{}

		result = append(result, core.CoveredFlowNode{
			ProcessDefinitionKey: n.ProcessDefinitionKey,
			ElementID:            n.ElementID,
			ElementType:          n.ElementType,
		})
	}

	return result
}

// DistinctSequenceFlows returns one entry per taken transition for the given process definition key, with counters
// discarded.
func DistinctSequenceFlows(ac AggregatedCoverage, processDefinitionKey string) []core.CoveredSequenceFlow {
	var result []core.CoveredSequenceFlow
	seen := make(map[string]struct{})

	for _, f := range ac.CoveredSequenceFlows(processDefinitionKey) {
		if _, ok := seen[f.TransitionID]; ok {
			continue
		}
		seen[f.TransitionID] = struct{}{}

		result = append(result, core.CoveredSequenceFlow{
			ProcessDefinitionKey: f.ProcessDefinitionKey,
			TransitionID:         f.TransitionID,
		})
	}

	return result
}

func sortFlowNodes(nodes []core.CoveredFlowNode) {
	slices.SortStableFunc(nodes, func(a, b core.CoveredFlowNode) int {
		if c := cmp.Compare(a.ExecutionStartCounter, b.ExecutionStartCounter); c != 0 {
			return c
		}

		return cmp.Compare(a.ExecutionEndCounter, b.ExecutionEndCounter)
	})
}

func sortSequenceFlows(flows []core.CoveredSequenceFlow) {
	slices.SortStableFunc(flows, func(a, b core.CoveredSequenceFlow) int {
		return cmp.Compare(a.ExecutionStartCounter, b.ExecutionStartCounter)
	})
}

func sortedRules(set map[core.CoveredDmnRule]struct{}) []core.CoveredDmnRule {
	if len(set) == 0 {
		return nil
	}

	rules := make([]core.CoveredDmnRule, 0, len(set))
	for r := range set {
		rules = append(rules, r)
	}

	slices.SortFunc(rules, func(a, b core.CoveredDmnRule) int {
		if c := cmp.Compare(a.DecisionDefinitionKey, b.DecisionDefinitionKey); c != 0 {
			return c
		}

		return cmp.Compare(a.RuleID, b.RuleID)
	})

	return rules
}

func sortProcessDefinitions(defs []core.ProcessDefinition) {
	slices.SortFunc(defs, func(a, b core.ProcessDefinition) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Version, b.Version); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})
}

func sortDecisionDefinitions(defs []core.DecisionDefinition) {
	slices.SortFunc(defs, func(a, b core.DecisionDefinition) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Version, b.Version); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})
}
