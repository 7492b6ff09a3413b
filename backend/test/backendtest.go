package test

import (
	"context"
	"testing"
	"time"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/core"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func BackendTest(t *testing.T, setup func() backend.Backend, teardown func(b backend.Backend)) {
	// Stored timestamps are compared with Equal, keep them at a precision every backend round-trips
	now := time.Now().UTC().Truncate(time.Millisecond)

	tests := []struct {
		name string
		f    func(t *testing.T, ctx context.Context, b backend.Backend)
	}{
		{
			name: "SaveClassRun_GetClassRun_RoundTrips",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				run := newClassRun(t, uuid.NewString(), now)
				require.NoError(t, b.SaveClassRun(ctx, run))

				got, err := b.GetClassRun(ctx, run.ID)
				require.NoError(t, err)
				require.Equal(t, run.ID, got.ID)
				require.Equal(t, run.ClassName, got.ClassName)
				require.True(t, run.CreatedAt.Equal(got.CreatedAt))
				require.Equal(t, 2, got.MethodCount)

				requireSameCoverage(t, run, got)
			},
		},
		{
			name: "SaveClassRun_RestoredRunningMethodsCanBeEnded",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				run := newClassRun(t, uuid.NewString(), now)
				require.NoError(t, b.SaveClassRun(ctx, run))

				got, err := b.GetClassRun(ctx, run.ID)
				require.NoError(t, err)

				mc := coverageOf(t, got, "testRunning")
				require.False(t, mc.Finished())

				end := core.NewCoveredFlowNode("order-process", "B", "i2", "serviceTask")
				end.ExecutionEndCounter = 5
				outcome, err := mc.EndCoveredElement(end, coverage.EndWithoutStartFail)
				require.NoError(t, err)
				require.Equal(t, coverage.EndMatched, outcome)

				nodes := mc.CoveredFlowNodes("order-process")
				require.Len(t, nodes, 1)
				require.Equal(t, int64(4), nodes[0].ExecutionStartCounter)
				require.Equal(t, int64(5), nodes[0].ExecutionEndCounter)
			},
		},
		{
			name: "SaveClassRun_SameIDErrors",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				run := newClassRun(t, uuid.NewString(), now)
				require.NoError(t, b.SaveClassRun(ctx, run))

				err := b.SaveClassRun(ctx, run)
				require.ErrorIs(t, err, backend.ErrRunAlreadyExists)
			},
		},
		{
			name: "SaveClassRun_InvalidRunErrors",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				require.Error(t, b.SaveClassRun(ctx, &backend.ClassRun{ClassName: "A"}))
			},
		},
		{
			name: "GetClassRun_UnknownIDErrors",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				_, err := b.GetClassRun(ctx, uuid.NewString())
				require.ErrorIs(t, err, backend.ErrRunNotFound)
			},
		},
		{
			name: "ListClassRuns_NewestFirstWithoutCoverage",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				className := uuid.NewString()

				first := newClassRun(t, className, now.Add(-2*time.Hour))
				second := newClassRun(t, className, now.Add(-time.Hour))
				third := newClassRun(t, className, now)
				other := newClassRun(t, uuid.NewString(), now)

				for _, r := range []*backend.ClassRun{second, first, other, third} {
					require.NoError(t, b.SaveClassRun(ctx, r))
				}

				runs, err := b.ListClassRuns(ctx, className)
				require.NoError(t, err)
				require.Len(t, runs, 3)

				require.Equal(t, third.ID, runs[0].ID)
				require.Equal(t, second.ID, runs[1].ID)
				require.Equal(t, first.ID, runs[2].ID)

				for _, r := range runs {
					require.Nil(t, r.Coverage)
					require.Equal(t, className, r.ClassName)
					require.Equal(t, 2, r.MethodCount)
				}
			},
		},
		{
			name: "ListClassRuns_EmptyClassListsAll",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				a := newClassRun(t, uuid.NewString(), now)
				c := newClassRun(t, uuid.NewString(), now.Add(time.Minute))
				require.NoError(t, b.SaveClassRun(ctx, a))
				require.NoError(t, b.SaveClassRun(ctx, c))

				runs, err := b.ListClassRuns(ctx, "")
				require.NoError(t, err)

				ids := make([]string, 0, len(runs))
				for _, r := range runs {
					ids = append(ids, r.ID)
				}
				require.Contains(t, ids, a.ID)
				require.Contains(t, ids, c.ID)
			},
		},
		{
			name: "ListClassRuns_UnknownClassIsEmpty",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				runs, err := b.ListClassRuns(ctx, uuid.NewString())
				require.NoError(t, err)
				require.Empty(t, runs)
			},
		},
		{
			name: "RemoveClassRuns_KeepLatest",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				className := uuid.NewString()

				var runs []*backend.ClassRun
				for i := 0; i < 3; i++ {
					r := newClassRun(t, className, now.Add(time.Duration(i)*time.Minute))
					require.NoError(t, b.SaveClassRun(ctx, r))
					runs = append(runs, r)
				}

				other := newClassRun(t, uuid.NewString(), now.Add(-time.Hour))
				require.NoError(t, b.SaveClassRun(ctx, other))

				removed, err := b.RemoveClassRuns(ctx, backend.RemoveClass(className), backend.KeepLatest(1))
				require.NoError(t, err)
				require.Equal(t, 2, removed)

				left, err := b.ListClassRuns(ctx, className)
				require.NoError(t, err)
				require.Len(t, left, 1)
				require.Equal(t, runs[2].ID, left[0].ID)

				_, err = b.GetClassRun(ctx, runs[0].ID)
				require.ErrorIs(t, err, backend.ErrRunNotFound)

				_, err = b.GetClassRun(ctx, other.ID)
				require.NoError(t, err)
			},
		},
		{
			name: "RemoveClassRuns_CreatedBefore",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				className := uuid.NewString()

				old := newClassRun(t, className, now.Add(-48*time.Hour))
				recent := newClassRun(t, className, now)
				require.NoError(t, b.SaveClassRun(ctx, old))
				require.NoError(t, b.SaveClassRun(ctx, recent))

				removed, err := b.RemoveClassRuns(ctx, backend.RemoveClass(className), backend.RemoveCreatedBefore(now.Add(-24*time.Hour)))
				require.NoError(t, err)
				require.Equal(t, 1, removed)

				left, err := b.ListClassRuns(ctx, className)
				require.NoError(t, err)
				require.Len(t, left, 1)
				require.Equal(t, recent.ID, left[0].ID)
			},
		},
		{
			name: "GetStats_CountsRunsAndClasses",
			f: func(t *testing.T, ctx context.Context, b backend.Backend) {
				before, err := b.GetStats(ctx)
				require.NoError(t, err)

				className := uuid.NewString()
				latest := now.Add(24 * time.Hour)
				require.NoError(t, b.SaveClassRun(ctx, newClassRun(t, className, now)))
				require.NoError(t, b.SaveClassRun(ctx, newClassRun(t, className, latest)))

				s, err := b.GetStats(ctx)
				require.NoError(t, err)
				require.Equal(t, before.ClassRuns+2, s.ClassRuns)
				require.Equal(t, before.Classes+1, s.Classes)
				require.True(t, latest.Equal(s.LatestRun))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setup()
			ctx := context.Background()
			tt.f(t, ctx, b)
			if teardown != nil {
				teardown(b)
			}
		})
	}
}
