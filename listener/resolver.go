package listener

import (
	"context"
	"time"

	"github.com/flowcov/go-flowcov/internal/metrickeys"
	"github.com/flowcov/go-flowcov/metrics"
	"github.com/jellydator/ttlcache/v3"
)

// DefinitionResolver looks up the key of a deployed process definition. Engines report executions with the
// definition ID, coverage is filed by key.
type DefinitionResolver interface {
	ProcessDefinitionKey(ctx context.Context, processDefinitionID string) (string, error)
}

// ResolverFunc adapts a function to a DefinitionResolver.
type ResolverFunc func(ctx context.Context, processDefinitionID string) (string, error)

func (f ResolverFunc) ProcessDefinitionKey(ctx context.Context, processDefinitionID string) (string, error) {
	return f(ctx, processDefinitionID)
}

type CachingResolver struct {
	resolver DefinitionResolver
	mc       metrics.Client
	c        *ttlcache.Cache[string, string]
}

var _ DefinitionResolver = (*CachingResolver)(nil)

// NewCachingResolver memoizes up to size resolved keys for the given expiration. Failed lookups are not cached.
func NewCachingResolver(resolver DefinitionResolver, mc metrics.Client, size int, expiration time.Duration) *CachingResolver {
	c := ttlcache.New(
		ttlcache.WithCapacity[string, string](uint64(size)),
		ttlcache.WithTTL[string, string](expiration),
	)

	c.OnEviction(func(ctx context.Context, er ttlcache.EvictionReason, i *ttlcache.Item[string, string]) {
		reason := ""
		switch er {
		case ttlcache.EvictionReasonExpired:
			reason = "expired"
		case ttlcache.EvictionReasonCapacityReached:
			reason = "capacity"
		}

		mc.Counter(metrickeys.DefinitionCacheEviction, metrics.Tags{metrickeys.EvictionReason: reason}, 1)
	})

	return &CachingResolver{
		resolver: resolver,
		mc:       mc,
		c:        c,
	}
}

func (cr *CachingResolver) ProcessDefinitionKey(ctx context.Context, processDefinitionID string) (string, error) {
	if i := cr.c.Get(processDefinitionID); i != nil {
		return i.Value(), nil
	}

	cr.mc.Counter(metrickeys.DefinitionCacheMiss, metrics.Tags{}, 1)

	key, err := cr.resolver.ProcessDefinitionKey(ctx, processDefinitionID)
	if err != nil {
		return "", err
	}

	cr.c.Set(processDefinitionID, key, ttlcache.DefaultTTL)

	cr.mc.Gauge(metrickeys.DefinitionCacheSize, metrics.Tags{}, int64(cr.c.Len()))

	return key, nil
}

// Evict removes a resolved key, e.g. after a deployment was deleted.
func (cr *CachingResolver) Evict(processDefinitionID string) {
	cr.c.Delete(processDefinitionID)

	cr.mc.Gauge(metrickeys.DefinitionCacheSize, metrics.Tags{}, int64(cr.c.Len()))
}

func (cr *CachingResolver) Len() int {
	return cr.c.Len()
}

// StartEviction removes expired entries until ctx is canceled.
func (cr *CachingResolver) StartEviction(ctx context.Context) {
	go cr.c.Start()

	<-ctx.Done()

	cr.c.Stop()
}
