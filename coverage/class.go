package coverage

import (
	"slices"
	"sync"

	"github.com/flowcov/go-flowcov/core"
)

// ClassCoverage is the coverage of a test class, made up of the coverages of its test methods. Queries merge the
// coverage of all registered methods.
type ClassCoverage struct {
	mu sync.RWMutex

	methods map[string]*MethodCoverage
}

func NewClassCoverage() *ClassCoverage {
	return &ClassCoverage{
		methods: make(map[string]*MethodCoverage),
	}
}

// AddTestMethodCoverage registers the coverage for a test method. Registering the same name again replaces the
// previous coverage.
func (cc *ClassCoverage) AddTestMethodCoverage(testMethodName string, mc *MethodCoverage) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.methods[testMethodName] = mc
}

// TestMethodCoverage returns the coverage of the given test method, or an *ErrTestMethodNotFound.
func (cc *ClassCoverage) TestMethodCoverage(testMethodName string) (*MethodCoverage, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	mc, ok := cc.methods[testMethodName]
	if !ok {
		return nil, &ErrTestMethodNotFound{TestMethodName: testMethodName}
	}

	return mc, nil
}

// TestMethodNames returns the names of all registered test methods, sorted.
func (cc *ClassCoverage) TestMethodNames() []string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	names := make([]string, 0, len(cc.methods))
	for name := range cc.methods {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func (cc *ClassCoverage) AddCoveredElement(testMethodName string, e core.Element) error {
	mc, err := cc.TestMethodCoverage(testMethodName)
	if err != nil {
		return err
	}

	return mc.AddCoveredElement(e)
}

func (cc *ClassCoverage) EndCoveredElement(testMethodName string, e core.Element, policy EndWithoutStartPolicy) (EndOutcome, error) {
	mc, err := cc.TestMethodCoverage(testMethodName)
	if err != nil {
		return 0, err
	}

	return mc.EndCoveredElement(e, policy)
}

func (cc *ClassCoverage) AddCoveredDmnRules(testMethodName string, rules []core.CoveredDmnRule) error {
	mc, err := cc.TestMethodCoverage(testMethodName)
	if err != nil {
		return err
	}

	return mc.AddCoveredDmnRules(rules)
}

// methodCoverages returns the registered method coverages ordered by name.
func (cc *ClassCoverage) methodCoverages() []*MethodCoverage {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	names := make([]string, 0, len(cc.methods))
	for name := range cc.methods {
		names = append(names, name)
	}
	slices.Sort(names)

	result := make([]*MethodCoverage, 0, len(names))
	for _, name := range names {
		result = append(result, cc.methods[name])
	}

	return result
}

// CoveredFlowNodes returns the flow node occurrences of all test methods. The same model element covered by two
// methods appears once per occurrence; use DistinctFlowNodes for element-level coverage.
func (cc *ClassCoverage) CoveredFlowNodes(processDefinitionKey string) []core.CoveredFlowNode {
	var result []core.CoveredFlowNode
	for _, mc := range cc.methodCoverages() {
		result = append(result, mc.CoveredFlowNodes(processDefinitionKey)...)
	}

	sortFlowNodes(result)

	return result
}

func (cc *ClassCoverage) CoveredSequenceFlows(processDefinitionKey string) []core.CoveredSequenceFlow {
	var result []core.CoveredSequenceFlow
	for _, mc := range cc.methodCoverages() {
		result = append(result, mc.CoveredSequenceFlows(processDefinitionKey)...)
	}

	sortSequenceFlows(result)

	return result
}

func (cc *ClassCoverage) CoveredDecisionRules(decisionDefinitionKey string) []core.CoveredDmnRule {
	set := make(map[core.CoveredDmnRule]struct{})
	for _, mc := range cc.methodCoverages() {
		for _, r := range mc.CoveredDecisionRules(decisionDefinitionKey) {
			set[r] = struct{}{}
		}
	}

	return sortedRules(set)
}

// ProcessDefinitions returns the process definitions deployed for any test method, deduplicated by definition id.
func (cc *ClassCoverage) ProcessDefinitions() []core.ProcessDefinition {
	var result []core.ProcessDefinition
	seen := make(map[string]struct{})

	for _, mc := range cc.methodCoverages() {
		for _, def := range mc.ProcessDefinitions() {
			if _, ok := seen[def.ID]; ok {
				continue
			}
			seen[def.ID] = struct{}{}

			result = append(result, def)
		}
	}

	sortProcessDefinitions(result)

	return result
}

// DecisionDefinitions returns the decision definitions deployed for any test method, deduplicated by definition id.
func (cc *ClassCoverage) DecisionDefinitions() []core.DecisionDefinition {
	var result []core.DecisionDefinition
	seen := make(map[string]struct{})

	for _, mc := range cc.methodCoverages() {
		for _, def := range mc.DecisionDefinitions() {
			if _, ok := seen[def.ID]; ok {
				continue
			}
			seen[def.ID] = struct{}{}

			result = append(result, def)
		}
	}

	sortDecisionDefinitions(result)

	return result
}
