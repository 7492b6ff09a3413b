package metrickeys

const (
	Prefix = "flowcov."

	// Test methods
	MethodInitialized = Prefix + "method.initialized"
	MethodFinished    = Prefix + "method.finished"
	MethodDuration    = Prefix + "method.duration"

	// Elements
	ElementRecorded = Prefix + "element.recorded"
	ElementEnded    = Prefix + "element.ended"
	ElementExcluded = Prefix + "element.excluded"
	ElementRejected = Prefix + "element.rejected"
	RulesRecorded   = Prefix + "rules.recorded"

	// Definition key resolution
	DefinitionCacheSize     = Prefix + "definition.cache.size"
	DefinitionCacheEviction = Prefix + "definition.cache.eviction"
	DefinitionCacheMiss     = Prefix + "definition.cache.miss"

	// Persisted runs
	RunSaved    = Prefix + "run.saved"
	RunSaveTime = Prefix + "run.save_time"
)

// Tag names
const (
	// Backend being used
	Backend = "backend"

	// Reason for evicting an entry from the definition key cache
	EvictionReason = "reason"

	ElementKind = "kind"

	// Outcome of an ended element, e.g. recorded without start
	Outcome = "outcome"
)
