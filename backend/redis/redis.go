package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/internal/metrickeys"
	"github.com/flowcov/go-flowcov/internal/tracing"
	"github.com/flowcov/go-flowcov/log"
	"github.com/flowcov/go-flowcov/metrics"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ backend.Backend = (*redisBackend)(nil)

func NewRedisBackend(client redis.UniversalClient, opts ...RedisBackendOption) (*redisBackend, error) {
	// Default options
	options := &RedisOptions{
		Options: backend.ApplyOptions(),
	}

	for _, opt := range opts {
		opt(options)
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &redisBackend{
		rdb:     client,
		options: options,
		keys:    newKeys(options.KeyPrefix),
		tracer:  options.TracerProvider.Tracer(backend.TracerName),
		metrics: options.Metrics.WithTags(metrics.Tags{metrickeys.Backend: "redis"}),
	}, nil
}

type redisBackend struct {
	rdb     redis.UniversalClient
	options *RedisOptions
	keys    *keys
	tracer  trace.Tracer
	metrics metrics.Client
}

func (rb *redisBackend) Close() error {
	return rb.rdb.Close()
}

func (rb *redisBackend) SaveClassRun(ctx context.Context, run *backend.ClassRun) (err error) {
	if err := backend.ValidateRun(run); err != nil {
		return err
	}

	ctx, span := rb.tracer.Start(ctx, "SaveClassRun", trace.WithAttributes(
		attribute.String(log.RunIDKey, run.ID),
		attribute.String(log.ClassNameKey, run.ClassName),
	))
	defer func() {
		_ = tracing.WithSpanError(span, err)
		span.End()
	}()

	timer := metrics.NewTimer(rb.metrics, rb.options.Clock, metrickeys.RunSaveTime, metrics.Tags{})
	defer timer.Stop()

	stored := *run
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = rb.options.Clock.Now()
	}
	stored.MethodCount = len(run.Coverage.Methods)

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling class run: %w", err)
	}

	runKey := rb.keys.runKey(run.ID)

	err = rb.rdb.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, runKey).Result()
		if err != nil {
			return fmt.Errorf("checking for existing run: %w", err)
		}

		if exists > 0 {
			return backend.ErrRunAlreadyExists
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, runKey, data, rb.options.AutoExpiration)

			score := float64(stored.CreatedAt.UnixMilli())
			p.ZAdd(ctx, rb.keys.runsByClass(run.ClassName), redis.Z{Score: score, Member: run.ID})
			p.ZAdd(ctx, rb.keys.runsByCreation(), redis.Z{Score: score, Member: run.ID})
			p.HSet(ctx, rb.keys.runClasses(), run.ID, run.ClassName)
			p.SAdd(ctx, rb.keys.classes(), run.ClassName)

			if rb.options.AutoExpiration > 0 {
				expiresAt := rb.options.Clock.Now().Add(rb.options.AutoExpiration).UnixMilli()
				p.ZAdd(ctx, rb.keys.runsExpiring(), redis.Z{Score: float64(expiresAt), Member: run.ID})
			}

			return nil
		})

		return err
	}, runKey)
	if err != nil {
		if errors.Is(err, backend.ErrRunAlreadyExists) {
			return err
		}

		return fmt.Errorf("saving class run: %w", err)
	}

	rb.metrics.Counter(metrickeys.RunSaved, metrics.Tags{}, 1)
	rb.options.Logger.Debug("saved class run",
		log.RunIDKey, run.ID,
		log.ClassNameKey, run.ClassName,
	)

	return nil
}

func (rb *redisBackend) GetClassRun(ctx context.Context, id string) (*backend.ClassRun, error) {
	data, err := rb.rdb.Get(ctx, rb.keys.runKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, backend.ErrRunNotFound
		}

		return nil, fmt.Errorf("getting class run: %w", err)
	}

	var run backend.ClassRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshaling class run: %w", err)
	}

	return &run, nil
}

func (rb *redisBackend) ListClassRuns(ctx context.Context, className string) ([]*backend.ClassRun, error) {
	if err := rb.removeExpired(ctx); err != nil {
		return nil, err
	}

	return rb.listClassRuns(ctx, className)
}

func (rb *redisBackend) listClassRuns(ctx context.Context, className string) ([]*backend.ClassRun, error) {
	key := rb.keys.runsByCreation()
	if className != "" {
		key = rb.keys.runsByClass(className)
	}

	// Ties are ordered by member descending, same as the other backends order by ID
	ids, err := rb.rdb.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing class runs: %w", err)
	}

	runs := make([]*backend.ClassRun, 0, len(ids))
	if len(ids) == 0 {
		return runs, nil
	}

	runKeys := make([]string, 0, len(ids))
	for _, id := range ids {
		runKeys = append(runKeys, rb.keys.runKey(id))
	}

	payloads, err := rb.rdb.MGet(ctx, runKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("loading class runs: %w", err)
	}

	for _, p := range payloads {
		// Expired, but not yet removed from the index
		s, ok := p.(string)
		if !ok {
			continue
		}

		var run backend.ClassRun
		if err := json.Unmarshal([]byte(s), &run); err != nil {
			return nil, fmt.Errorf("unmarshaling class run: %w", err)
		}

		runs = append(runs, backend.Summary(&run))
	}

	return runs, nil
}

func (rb *redisBackend) RemoveClassRuns(ctx context.Context, opts ...backend.RemovalOption) (int, error) {
	options := backend.ApplyRemovalOptions(opts...)

	if err := rb.removeExpired(ctx); err != nil {
		return 0, err
	}

	runs, err := rb.listClassRuns(ctx, options.ClassName)
	if err != nil {
		return 0, err
	}

	index := map[string]int{}

	var ids []string
	for _, run := range runs {
		i := index[run.ClassName]
		index[run.ClassName]++

		if options.Removable(run, i) {
			ids = append(ids, run.ID)
		}
	}

	if err := rb.removeRuns(ctx, ids); err != nil {
		return 0, err
	}

	return len(ids), nil
}

func (rb *redisBackend) GetStats(ctx context.Context) (*backend.Stats, error) {
	if err := rb.removeExpired(ctx); err != nil {
		return nil, err
	}

	s := &backend.Stats{}

	var runs, classes *redis.IntCmd
	var latest *redis.ZSliceCmd
	_, err := rb.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		runs = p.ZCard(ctx, rb.keys.runsByCreation())
		classes = p.SCard(ctx, rb.keys.classes())
		latest = p.ZRevRangeWithScores(ctx, rb.keys.runsByCreation(), 0, 0)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}

	s.ClassRuns = runs.Val()
	s.Classes = classes.Val()

	if l := latest.Val(); len(l) > 0 {
		s.LatestRun = time.UnixMilli(int64(l[0].Score)).UTC()
	}

	return s, nil
}

// removeExpired removes runs whose payload expired from the indexes
func (rb *redisBackend) removeExpired(ctx context.Context) error {
	if rb.options.AutoExpiration <= 0 {
		return nil
	}

	now := strconv.FormatInt(rb.options.Clock.Now().UnixMilli(), 10)
	ids, err := rb.rdb.ZRangeByScore(ctx, rb.keys.runsExpiring(), &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return fmt.Errorf("finding expired runs: %w", err)
	}

	return rb.removeRuns(ctx, ids)
}

func (rb *redisBackend) removeRuns(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	classNames, err := rb.rdb.HMGet(ctx, rb.keys.runClasses(), ids...).Result()
	if err != nil {
		return fmt.Errorf("getting classes of runs: %w", err)
	}

	affected := map[string]struct{}{}

	_, err = rb.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			p.Del(ctx, rb.keys.runKey(id))
			p.ZRem(ctx, rb.keys.runsByCreation(), id)
			p.ZRem(ctx, rb.keys.runsExpiring(), id)
			p.HDel(ctx, rb.keys.runClasses(), id)

			if className, ok := classNames[i].(string); ok {
				p.ZRem(ctx, rb.keys.runsByClass(className), id)
				affected[className] = struct{}{}
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("removing runs: %w", err)
	}

	for className := range affected {
		n, err := rb.rdb.ZCard(ctx, rb.keys.runsByClass(className)).Result()
		if err != nil {
			return fmt.Errorf("counting runs of class: %w", err)
		}

		if n == 0 {
			if err := rb.rdb.SRem(ctx, rb.keys.classes(), className).Err(); err != nil {
				return fmt.Errorf("removing class: %w", err)
			}
		}
	}

	rb.options.Logger.Debug("removed class runs", log.RunCountKey, len(ids))

	return nil
}
