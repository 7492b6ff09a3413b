package redis

import "strings"

type keys struct {
	// prefix for all keys used by the backend, always ends with a colon if set
	prefix string
}

func newKeys(prefix string) *keys {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &keys{prefix: prefix}
}

// runKey returns the key holding the JSON payload of a run
func (k *keys) runKey(runID string) string {
	return k.prefix + "run:" + runID
}

// runsByClass returns the key for the ZSET of the runs of a class. The score is the creation time in unix
// milliseconds.
func (k *keys) runsByClass(className string) string {
	return k.prefix + "runs-by-class:" + className
}

// runsByCreation returns the key for the ZSET that contains all runs sorted by creation time.
func (k *keys) runsByCreation() string {
	return k.prefix + "runs-by-creation"
}

// runsExpiring returns the key for the ZSET of runs with an expiration. The score is the expiration time in unix
// milliseconds.
func (k *keys) runsExpiring() string {
	return k.prefix + "runs-expiring"
}

// runClasses returns the key for the hash mapping run IDs to their class
func (k *keys) runClasses() string {
	return k.prefix + "run-classes"
}

// classes returns the key for the set of classes with stored runs
func (k *keys) classes() string {
	return k.prefix + "classes"
}
