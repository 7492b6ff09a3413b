package redis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_newKeys(t *testing.T) {
	t.Run("WithEmptyPrefix", func(t *testing.T) {
		k := newKeys("")
		require.Empty(t, k.prefix)
		require.Equal(t, "run:1", k.runKey("1"))
	})

	t.Run("WithNonEmptyPrefixWithoutColon", func(t *testing.T) {
		k := newKeys("prefix")
		require.Equal(t, "prefix:", k.prefix)
	})

	t.Run("WithNonEmptyPrefixWithColon", func(t *testing.T) {
		k := newKeys("prefix:")
		require.Equal(t, "prefix:", k.prefix)
	})
}

func Test_Keys(t *testing.T) {
	k := newKeys("flowcov")

	require.Equal(t, "flowcov:run:abc", k.runKey("abc"))
	require.Equal(t, "flowcov:runs-by-class:OrderProcessTest", k.runsByClass("OrderProcessTest"))
	require.Equal(t, "flowcov:runs-by-creation", k.runsByCreation())
	require.Equal(t, "flowcov:runs-expiring", k.runsExpiring())
	require.Equal(t, "flowcov:run-classes", k.runClasses())
	require.Equal(t, "flowcov:classes", k.classes())
}
