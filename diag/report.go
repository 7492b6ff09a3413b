package diag

import (
	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/coverage"
)

// json: serialization in this file is part of the /api contract

type RunReport struct {
	*backend.ClassRun

	// TestMethodName is set when the report covers a single test method
	TestMethodName string `json:"test_method_name,omitempty"`

	Processes []*ProcessReport  `json:"processes"`
	Decisions []*DecisionReport `json:"decisions"`
}

type ProcessReport struct {
	Key           string          `json:"key"`
	FlowNodes     []*FlowNodeInfo `json:"flow_nodes"`
	SequenceFlows []string        `json:"sequence_flows"`
}

type FlowNodeInfo struct {
	ElementID   string `json:"element_id"`
	ElementType string `json:"element_type,omitempty"`
}

type DecisionReport struct {
	Key   string   `json:"key"`
	Rules []string `json:"rules"`
}

// NewRunReport lists the distinct elements covered by a stored run. If testMethodName is not empty, only the
// coverage of that test method is reported.
func NewRunReport(run *backend.ClassRun, testMethodName string) (*RunReport, error) {
	cc := coverage.RestoreClassCoverage(run.Coverage)

	var ac coverage.AggregatedCoverage = cc
	if testMethodName != "" {
		mc, err := cc.TestMethodCoverage(testMethodName)
		if err != nil {
			return nil, err
		}
		ac = mc
	}

	report := &RunReport{
		ClassRun:       backend.Summary(run),
		TestMethodName: testMethodName,
		Processes:      make([]*ProcessReport, 0),
		Decisions:      make([]*DecisionReport, 0),
	}

	// Definitions of several deployments share a key
	seen := make(map[string]struct{})
	for _, pd := range ac.ProcessDefinitions() {
		if _, ok := seen[pd.Key]; ok {
			continue
		}
		seen[pd.Key] = struct{}{}

		pr := &ProcessReport{
			Key:           pd.Key,
			FlowNodes:     make([]*FlowNodeInfo, 0),
			SequenceFlows: make([]string, 0),
		}

		for _, n := range coverage.DistinctFlowNodes(ac, pd.Key) {
			pr.FlowNodes = append(pr.FlowNodes, &FlowNodeInfo{ElementID: n.ElementID, ElementType: n.ElementType})
		}

		for _, f := range coverage.DistinctSequenceFlows(ac, pd.Key) {
			pr.SequenceFlows = append(pr.SequenceFlows, f.TransitionID)
		}

		report.Processes = append(report.Processes, pr)
	}

	seen = make(map[string]struct{})
	for _, dd := range ac.DecisionDefinitions() {
		if _, ok := seen[dd.Key]; ok {
			continue
		}
		seen[dd.Key] = struct{}{}

		dr := &DecisionReport{Key: dd.Key, Rules: make([]string, 0)}
		for _, r := range ac.CoveredDecisionRules(dd.Key) {
			dr.Rules = append(dr.Rules, r.RuleID)
		}

		report.Decisions = append(report.Decisions, dr)
	}

	return report, nil
}

// Process returns the report for the given process definition key, or nil.
func (r *RunReport) Process(key string) *ProcessReport {
	for _, p := range r.Processes {
		if p.Key == key {
			return p
		}
	}

	return nil
}
