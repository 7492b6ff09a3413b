package coverage

import (
	"sync"
	"time"

	"github.com/flowcov/go-flowcov/core"
)

// MethodCoverage is the coverage of a single test method run. Every test method run has its own deployment, so the
// method coverage holds the process and decision definitions of that deployment along with every element observed
// while the method was running.
type MethodCoverage struct {
	mu sync.RWMutex

	deploymentID   string
	testMethodName string

	startedAt  time.Time
	finishedAt time.Time
	finished   bool

	processes     []*ProcessCoverage
	processByKey  map[string]*ProcessCoverage
	decisions     []*DecisionCoverage
	decisionByKey map[string]*DecisionCoverage
}

func NewMethodCoverage(deploymentID, testMethodName string, startedAt time.Time) *MethodCoverage {
	return &MethodCoverage{
		deploymentID:   deploymentID,
		testMethodName: testMethodName,
		startedAt:      startedAt,
		processByKey:   make(map[string]*ProcessCoverage),
		decisionByKey:  make(map[string]*DecisionCoverage),
	}
}

func (mc *MethodCoverage) DeploymentID() string {
	return mc.deploymentID
}

func (mc *MethodCoverage) TestMethodName() string {
	return mc.testMethodName
}

func (mc *MethodCoverage) StartedAt() time.Time {
	return mc.startedAt
}

// FinishedAt returns the time the method coverage was finished, or the zero time if it is still being recorded.
func (mc *MethodCoverage) FinishedAt() time.Time {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.finishedAt
}

func (mc *MethodCoverage) Finished() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.finished
}

// Finish marks the method coverage as complete. Any further additions fail with ErrMethodCoverageFinished.
// Finishing more than once keeps the first time.
func (mc *MethodCoverage) Finish(at time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.finished {
		return
	}

	mc.finished = true
	mc.finishedAt = at
}

// AddProcessCoverage associates a process definition with this method. A coverage for a definition with the same
// key replaces the previous one.
func (mc *MethodCoverage) AddProcessCoverage(pc *ProcessCoverage) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := pc.definition.Key
	if existing, ok := mc.processByKey[key]; ok {
		for i, p := range mc.processes {
			if p == existing {
				mc.processes[i] = pc
			}
		}
	} else {
		mc.processes = append(mc.processes, pc)
	}

	mc.processByKey[key] = pc
}

// AddDecisionCoverage associates a decision definition with this method. A coverage for a definition with the same
// key replaces the previous one.
func (mc *MethodCoverage) AddDecisionCoverage(dc *DecisionCoverage) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := dc.definition.Key
	if existing, ok := mc.decisionByKey[key]; ok {
		for i, d := range mc.decisions {
			if d == existing {
				mc.decisions[i] = dc
			}
		}
	} else {
		mc.decisions = append(mc.decisions, dc)
	}

	mc.decisionByKey[key] = dc
}

// AddCoveredElement files a started element into the coverage of its definition.
func (mc *MethodCoverage) AddCoveredElement(e core.Element) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.finished {
		return ErrMethodCoverageFinished
	}

	switch e := e.(type) {
	case *core.CoveredFlowNode:
		pc, err := mc.process(e.ProcessDefinitionKey)
		if err != nil {
			return err
		}

		pc.startFlowNode(*e)

	case *core.CoveredSequenceFlow:
		pc, err := mc.process(e.ProcessDefinitionKey)
		if err != nil {
			return err
		}

		pc.addSequenceFlow(*e)

	case *core.CoveredDmnRule:
		dc, err := mc.decision(e.DecisionDefinitionKey)
		if err != nil {
			return err
		}

		dc.addRule(*e)

	default:
		return core.ErrUnknownElement
	}

	return nil
}

// EndCoveredElement reconciles an end notification with the running occurrence sharing its activity instance id.
// Sequence flows and rules have no duration; their end is accepted without changes.
func (mc *MethodCoverage) EndCoveredElement(e core.Element, policy EndWithoutStartPolicy) (EndOutcome, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.finished {
		return 0, ErrMethodCoverageFinished
	}

	switch e := e.(type) {
	case *core.CoveredFlowNode:
		pc, err := mc.process(e.ProcessDefinitionKey)
		if err != nil {
			return 0, err
		}

		return pc.endFlowNode(*e, policy)

	case *core.CoveredSequenceFlow:
		if _, err := mc.process(e.ProcessDefinitionKey); err != nil {
			return 0, err
		}

		return EndInstantaneous, nil

	case *core.CoveredDmnRule:
		if _, err := mc.decision(e.DecisionDefinitionKey); err != nil {
			return 0, err
		}

		return EndInstantaneous, nil
	}

	return 0, core.ErrUnknownElement
}

// AddCoveredDmnRules adds the given rules to the coverage of their decisions. Either all rules are added or, if any
// references an unknown decision, none.
func (mc *MethodCoverage) AddCoveredDmnRules(rules []core.CoveredDmnRule) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.finished {
		return ErrMethodCoverageFinished
	}

	for _, r := range rules {
		if _, err := mc.decision(r.DecisionDefinitionKey); err != nil {
			return err
		}
	}

	for _, r := range rules {
		mc.decisionByKey[r.DecisionDefinitionKey].addRule(r)
	}

	return nil
}

func (mc *MethodCoverage) process(key string) (*ProcessCoverage, error) {
	pc, ok := mc.processByKey[key]
	if !ok {
		return nil, &ErrProcessDefinitionNotFound{TestMethodName: mc.testMethodName, ProcessDefinitionKey: key}
	}

	return pc, nil
}

func (mc *MethodCoverage) decision(key string) (*DecisionCoverage, error) {
	dc, ok := mc.decisionByKey[key]
	if !ok {
		return nil, &ErrDecisionDefinitionNotFound{TestMethodName: mc.testMethodName, DecisionDefinitionKey: key}
	}

	return dc, nil
}

func (mc *MethodCoverage) CoveredFlowNodes(processDefinitionKey string) []core.CoveredFlowNode {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	pc, ok := mc.processByKey[processDefinitionKey]
	if !ok {
		return nil
	}

	nodes := pc.coveredFlowNodes()
	sortFlowNodes(nodes)

	return nodes
}

func (mc *MethodCoverage) CoveredSequenceFlows(processDefinitionKey string) []core.CoveredSequenceFlow {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	pc, ok := mc.processByKey[processDefinitionKey]
	if !ok {
		return nil
	}

	flows := pc.coveredSequenceFlows()
	sortSequenceFlows(flows)

	return flows
}

func (mc *MethodCoverage) CoveredDecisionRules(decisionDefinitionKey string) []core.CoveredDmnRule {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	dc, ok := mc.decisionByKey[decisionDefinitionKey]
	if !ok {
		return nil
	}

	return sortedRules(dc.rules)
}

func (mc *MethodCoverage) ProcessDefinitions() []core.ProcessDefinition {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.processes) == 0 {
		return nil
	}

	defs := make([]core.ProcessDefinition, 0, len(mc.processes))
	for _, pc := range mc.processes {
		defs = append(defs, pc.definition)
	}

	sortProcessDefinitions(defs)

	return defs
}

func (mc *MethodCoverage) DecisionDefinitions() []core.DecisionDefinition {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.decisions) == 0 {
		return nil
	}

	defs := make([]core.DecisionDefinition, 0, len(mc.decisions))
	for _, dc := range mc.decisions {
		defs = append(defs, dc.definition)
	}

	sortDecisionDefinitions(defs)

	return defs
}
