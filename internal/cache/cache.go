package cache

import (
	"time"

	"github.com/alimgiray/gitprofile/internal/metrics"
	"github.com/alimgiray/gitprofile/pkg/config"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/dgraph-io/ristretto"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is used when the configuration does not set a positive TTL.
const DefaultTTL = 5 * time.Minute

// Clock returns the current time.
type Clock func() time.Time

type entry struct {
	body      []byte
	fetchedAt time.Time
}

// ResponseCache stores raw API response bodies keyed by request URL. An
// entry is served only while its age is below the TTL, measured with the
// cache's clock.
type ResponseCache struct {
	store *ristretto.Cache
	ttl   time.Duration
	now   Clock
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithClock replaces time.Now as the source of entry ages.
func WithClock(now Clock) Option {
	return func(c *ResponseCache) {
		c.now = now
	}
}

// New creates a response cache bounded by cfg.MaxSizeMB.
func New(cfg config.CacheConfig, opts ...Option) (*ResponseCache, error) {
	maxSizeMB := cfg.MaxSizeMB
	if maxSizeMB <= 0 {
		maxSizeMB = 64
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     int64(maxSizeMB) * 1024 * 1024,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	c := &ResponseCache{
		store: store,
		ttl:   cfg.TTL(),
		now:   time.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.WithFields(logrus.Fields{
		"max_size_mb": maxSizeMB,
		"ttl":         c.ttl.String(),
	}).Debug("Response cache initialized")

	return c, nil
}

// TTL returns the maximum age of a servable entry.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the body cached for key if it is younger than the TTL.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	value, found := c.store.Get(key)
	if !found {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}

	e, ok := value.(entry)
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		c.store.Del(key)
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}

	metrics.CacheHitsTotal.Inc()
	return e.body, true
}

// Set stores body under key, stamped with the current clock time. The
// write is visible to Get once Set returns.
func (c *ResponseCache) Set(key string, body []byte) {
	cost := int64(len(body))
	if cost == 0 {
		cost = 1
	}

	// ristretto evicts on its own wall clock; keep entries a little longer
	// than the TTL so the clock above stays authoritative.
	if !c.store.SetWithTTL(key, entry{body: body, fetchedAt: c.now()}, cost, 2*c.ttl) {
		logger.WithField("key", key).Debug("Response cache dropped write")
		return
	}
	c.store.Wait()
}

// Delete removes a key from the cache.
func (c *ResponseCache) Delete(key string) {
	c.store.Del(key)
}

// Close releases the cache's background goroutines.
func (c *ResponseCache) Close() {
	c.store.Close()
}
