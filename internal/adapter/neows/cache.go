package neows

import (
	"context"
	"strings"

	"github.com/couchcryptid/meteor-impact-service/internal/cache"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
)

// CachedProvider wraps an AsteroidDataProvider with an in-memory LRU cache.
type CachedProvider struct {
	inner   domain.AsteroidDataProvider
	cache   *cache.LRU[string, domain.AsteroidData]
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner domain.AsteroidDataProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.NewLRU[string, domain.AsteroidData](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) FetchByID(ctx context.Context, id string) (domain.AsteroidData, error) {
	key := strings.TrimSpace(id)
	if data, ok := c.cache.Get(key); ok {
		c.metrics.AsteroidCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	c.metrics.AsteroidCache.WithLabelValues("miss").Inc()

	data, err := c.inner.FetchByID(ctx, id)
	if err != nil {
		// Failures are not cached so a retry reaches NeoWs again.
		return data, err
	}
	c.cache.Put(key, data)
	return data, nil
}
