package tester

import (
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/stretchr/testify/assert"
)

type tHelper interface {
	Helper()
}

// AssertFlowNodesCovered asserts that all given elements of the process were covered at least once.
func AssertFlowNodesCovered(t assert.TestingT, ac coverage.AggregatedCoverage, processDefinitionKey string, elementIDs ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	return assert.Subset(t, CoveredFlowNodeIDs(ac, processDefinitionKey), elementIDs,
		"flow nodes of process %q not covered", processDefinitionKey)
}

// AssertFlowNodesNotCovered asserts that none of the given elements of the process were covered.
func AssertFlowNodesNotCovered(t assert.TestingT, ac coverage.AggregatedCoverage, processDefinitionKey string, elementIDs ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	covered := CoveredFlowNodeIDs(ac, processDefinitionKey)

	ok := true
	for _, id := range elementIDs {
		ok = assert.NotContains(t, covered, id, "flow node %q of process %q covered", id, processDefinitionKey) && ok
	}

	return ok
}

func AssertSequenceFlowsCovered(t assert.TestingT, ac coverage.AggregatedCoverage, processDefinitionKey string, transitionIDs ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	var covered []string
	for _, f := range coverage.DistinctSequenceFlows(ac, processDefinitionKey) {
		covered = append(covered, f.TransitionID)
	}

	return assert.Subset(t, covered, transitionIDs,
		"sequence flows of process %q not covered", processDefinitionKey)
}

func AssertRulesCovered(t assert.TestingT, ac coverage.AggregatedCoverage, decisionDefinitionKey string, ruleIDs ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}

	var covered []string
	for _, r := range ac.CoveredDecisionRules(decisionDefinitionKey) {
		covered = append(covered, r.RuleID)
	}

	return assert.Subset(t, covered, ruleIDs,
		"rules of decision %q not matched", decisionDefinitionKey)
}

// CoveredFlowNodeIDs returns the ids of the distinct elements covered for the process, in the order they were
// first covered.
func CoveredFlowNodeIDs(ac coverage.AggregatedCoverage, processDefinitionKey string) []string {
	var ids []string
	for _, n := range coverage.DistinctFlowNodes(ac, processDefinitionKey) {
		ids = append(ids, n.ElementID)
	}

	return ids
}
