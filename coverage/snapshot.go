package coverage

import (
	"time"

	"github.com/flowcov/go-flowcov/core"
)

// ClassSnapshot is a serializable copy of a ClassCoverage.
type ClassSnapshot struct {
	Methods []MethodSnapshot `json:"methods"`
}

type MethodSnapshot struct {
	DeploymentID   string    `json:"deployment_id"`
	TestMethodName string    `json:"test_method_name"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Finished       bool      `json:"finished"`

	Processes []ProcessSnapshot  `json:"processes,omitempty"`
	Decisions []DecisionSnapshot `json:"decisions,omitempty"`
}

type ProcessSnapshot struct {
	Definition    core.ProcessDefinition     `json:"definition"`
	FlowNodes     []core.CoveredFlowNode     `json:"flow_nodes,omitempty"`
	SequenceFlows []core.CoveredSequenceFlow `json:"sequence_flows,omitempty"`
}

type DecisionSnapshot struct {
	Definition core.DecisionDefinition `json:"definition"`
	Rules      []core.CoveredDmnRule   `json:"rules,omitempty"`
}

func (mc *MethodCoverage) Snapshot() MethodSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	s := MethodSnapshot{
		DeploymentID:   mc.deploymentID,
		TestMethodName: mc.testMethodName,
		StartedAt:      mc.startedAt,
		FinishedAt:     mc.finishedAt,
		Finished:       mc.finished,
	}

	for _, pc := range mc.processes {
		ps := ProcessSnapshot{
			Definition:    pc.definition,
			FlowNodes:     pc.coveredFlowNodes(),
			SequenceFlows: pc.coveredSequenceFlows(),
		}
		sortFlowNodes(ps.FlowNodes)
		sortSequenceFlows(ps.SequenceFlows)

		s.Processes = append(s.Processes, ps)
	}

	for _, dc := range mc.decisions {
		s.Decisions = append(s.Decisions, DecisionSnapshot{
			Definition: dc.definition,
			Rules:      sortedRules(dc.rules),
		})
	}

	return s
}

func (cc *ClassCoverage) Snapshot() *ClassSnapshot {
	s := &ClassSnapshot{}
	for _, mc := range cc.methodCoverages() {
		s.Methods = append(s.Methods, mc.Snapshot())
	}

	return s
}

// RestoreMethodCoverage rebuilds a method coverage from a snapshot. Occurrences without an end are running again
// and can still be reconciled unless the snapshot was taken after the method finished.
func RestoreMethodCoverage(s MethodSnapshot) *MethodCoverage {
	mc := NewMethodCoverage(s.DeploymentID, s.TestMethodName, s.StartedAt)

	for _, ps := range s.Processes {
		pc := NewProcessCoverage(ps.Definition)
		for _, n := range ps.FlowNodes {
			pc.startFlowNode(n)
		}
		for _, f := range ps.SequenceFlows {
			pc.addSequenceFlow(f)
		}

		mc.AddProcessCoverage(pc)
	}

	for _, ds := range s.Decisions {
		dc := NewDecisionCoverage(ds.Definition)
		for _, r := range ds.Rules {
			dc.addRule(r)
		}

		mc.AddDecisionCoverage(dc)
	}

	if s.Finished {
		mc.Finish(s.FinishedAt)
	}

	return mc
}

func RestoreClassCoverage(s *ClassSnapshot) *ClassCoverage {
	cc := NewClassCoverage()
	if s == nil {
		return cc
	}

	for _, ms := range s.Methods {
		cc.AddTestMethodCoverage(ms.TestMethodName, RestoreMethodCoverage(ms))
	}

	return cc
}
