package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/backend/test"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/stretchr/testify/require"
)

func Test_SqliteBackend(t *testing.T) {
	test.BackendTest(t, func() backend.Backend {
		return NewInMemoryBackend()
	}, func(b backend.Backend) {
		b.Close()
	})
}

func Test_SqliteFileBackend(t *testing.T) {
	test.BackendTest(t, func() backend.Backend {
		return NewSqliteBackend(filepath.Join(t.TempDir(), "coverage.db"))
	}, func(b backend.Backend) {
		b.Close()
	})
}

func Test_SqliteBackend_PragmaSettings(t *testing.T) {
	t.Run("In-memory database has memory journal mode", func(t *testing.T) {
		b := NewInMemoryBackend()
		defer b.Close()

		var journalMode string
		err := b.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		require.Equal(t, "memory", journalMode)
	})

	t.Run("File backend has WAL mode", func(t *testing.T) {
		b := NewSqliteBackend(filepath.Join(t.TempDir(), "nested", "coverage.db"))
		defer b.Close()

		var journalMode string
		err := b.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		require.Equal(t, "wal", journalMode)
	})
}

func Test_SqliteBackend_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.db")
	ctx := context.Background()

	b := NewSqliteBackend(path)
	require.NoError(t, b.SaveClassRun(ctx, &backend.ClassRun{
		ID:        "run-1",
		ClassName: "OrderProcessTest",
		CreatedAt: time.Now(),
		Coverage:  &coverage.ClassSnapshot{},
	}))
	require.NoError(t, b.Close())

	// Migrations are applied again without error
	b, err := New(path)
	require.NoError(t, err)
	defer b.Close()

	run, err := b.GetClassRun(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, "OrderProcessTest", run.ClassName)
}

func Test_SqliteBackend_ConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.db")
	ctx := context.Background()

	// Separate backends on one file, like parallel test binaries do
	const writers = 4
	backends := make([]*sqliteBackend, writers)
	for i := range backends {
		b, err := New(path)
		require.NoError(t, err)
		defer b.Close()

		backends[i] = b
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers*10)
	for i, b := range backends {
		wg.Add(1)
		go func(i int, b *sqliteBackend) {
			defer wg.Done()

			for j := 0; j < 10; j++ {
				errs <- b.SaveClassRun(ctx, &backend.ClassRun{
					ID:        fmt.Sprintf("run-%d-%d", i, j),
					ClassName: "OrderProcessTest",
					CreatedAt: time.Now(),
					Coverage:  &coverage.ClassSnapshot{},
				})
			}
		}(i, b)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	s, err := backends[0].GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(writers*10), s.ClassRuns)
	require.Equal(t, int64(1), s.Classes)
}

func Test_IsErrorCode(t *testing.T) {
	require.False(t, isErrorCode(nil, 5))
	require.False(t, isErrorCode(fmt.Errorf("other"), 5))
}
