package log

const (
	NamespaceKey = "flowcov"

	ClassNameKey    = NamespaceKey + ".class.name"
	MethodNameKey   = NamespaceKey + ".method.name"
	DeploymentIDKey = NamespaceKey + ".deployment.id"

	ProcessDefinitionKeyKey  = NamespaceKey + ".process.key"
	DecisionDefinitionKeyKey = NamespaceKey + ".decision.key"
	ProcessDefinitionIDKey   = NamespaceKey + ".process.id"

	OutcomeKey = NamespaceKey + ".end.outcome"

	ElementKindKey        = NamespaceKey + ".element.kind"
	ElementIDKey          = NamespaceKey + ".element.id"
	ActivityInstanceIDKey = NamespaceKey + ".element.activity_instance_id"
	TransitionIDKey       = NamespaceKey + ".element.transition_id"
	RuleCountKey          = NamespaceKey + ".rules.count"

	// CounterKey is the global order stamp assigned to an event
	CounterKey = NamespaceKey + ".counter"

	EventNameKey = NamespaceKey + ".event.name"

	RunIDKey       = NamespaceKey + ".run.id"
	RunCountKey    = NamespaceKey + ".run.count"
	MethodCountKey = NamespaceKey + ".run.methods"
	BackendKey     = NamespaceKey + ".backend"
	AttemptKey     = NamespaceKey + ".attempt"
	DurationKey    = NamespaceKey + ".duration_ms"
)
