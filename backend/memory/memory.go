package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/internal/metrickeys"
	"github.com/flowcov/go-flowcov/log"
	"github.com/flowcov/go-flowcov/metrics"
)

var _ backend.Backend = (*memoryBackend)(nil)

// NewMemoryBackend keeps class runs in memory. Stored coverage is copied on save and load, so callers can't change
// stored runs.
func NewMemoryBackend(opts ...backend.BackendOption) *memoryBackend {
	options := backend.ApplyOptions(opts...)

	return &memoryBackend{
		options: options,
		metrics: options.Metrics.WithTags(metrics.Tags{metrickeys.Backend: "memory"}),
		runs:    map[string]*storedRun{},
	}
}

type storedRun struct {
	run      backend.ClassRun
	coverage []byte
}

type memoryBackend struct {
	options backend.Options
	metrics metrics.Client

	mu   sync.RWMutex
	runs map[string]*storedRun
}

func (mb *memoryBackend) SaveClassRun(ctx context.Context, run *backend.ClassRun) error {
	if err := backend.ValidateRun(run); err != nil {
		return err
	}

	timer := metrics.NewTimer(mb.metrics, mb.options.Clock, metrickeys.RunSaveTime, metrics.Tags{})
	defer timer.Stop()

	data, err := json.Marshal(run.Coverage)
	if err != nil {
		return fmt.Errorf("marshaling coverage: %w", err)
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	if _, ok := mb.runs[run.ID]; ok {
		return backend.ErrRunAlreadyExists
	}

	stored := &storedRun{run: *backend.Summary(run), coverage: data}
	if stored.run.CreatedAt.IsZero() {
		stored.run.CreatedAt = mb.options.Clock.Now()
	}

	mb.runs[run.ID] = stored

	mb.metrics.Counter(metrickeys.RunSaved, metrics.Tags{}, 1)
	mb.options.Logger.Debug("saved class run",
		log.RunIDKey, run.ID,
		log.ClassNameKey, run.ClassName,
	)

	return nil
}

func (mb *memoryBackend) GetClassRun(ctx context.Context, id string) (*backend.ClassRun, error) {
	mb.mu.RLock()
	stored, ok := mb.runs[id]
	mb.mu.RUnlock()

	if !ok {
		return nil, backend.ErrRunNotFound
	}

	var s coverage.ClassSnapshot
	if err := json.Unmarshal(stored.coverage, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling coverage: %w", err)
	}

	run := stored.run
	run.Coverage = &s

	return &run, nil
}

func (mb *memoryBackend) ListClassRuns(ctx context.Context, className string) ([]*backend.ClassRun, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	return mb.listRuns(className), nil
}

// listRuns returns copies of the stored runs without coverage, newest first. Callers must hold the lock.
func (mb *memoryBackend) listRuns(className string) []*backend.ClassRun {
	runs := make([]*backend.ClassRun, 0)
	for _, stored := range mb.runs {
		if className != "" && stored.run.ClassName != className {
			continue
		}

		run := stored.run
		runs = append(runs, &run)
	}

	slices.SortFunc(runs, func(a, b *backend.ClassRun) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(b.ID, a.ID)
	})

	return runs
}

func (mb *memoryBackend) RemoveClassRuns(ctx context.Context, opts ...backend.RemovalOption) (int, error) {
	options := backend.ApplyRemovalOptions(opts...)

	mb.mu.Lock()
	defer mb.mu.Unlock()

	// Position of each run among the runs of its class
	index := map[string]int{}

	removed := 0
	for _, run := range mb.listRuns(options.ClassName) {
		i := index[run.ClassName]
		index[run.ClassName]++

		if options.Removable(run, i) {
			delete(mb.runs, run.ID)
			removed++
		}
	}

	return removed, nil
}

func (mb *memoryBackend) GetStats(ctx context.Context) (*backend.Stats, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	s := &backend.Stats{
		ClassRuns: int64(len(mb.runs)),
	}

	classes := map[string]struct{}{}
	for _, stored := range mb.runs {
		classes[stored.run.ClassName] = struct{}{}

		if stored.run.CreatedAt.After(s.LatestRun) {
			s.LatestRun = stored.run.CreatedAt
		}
	}

	s.Classes = int64(len(classes))

	return s, nil
}

func (mb *memoryBackend) Close() error {
	return nil
}
