// Package matchcache memoizes per-profile match results between the
// orchestrator and the vector search service.
//
// The cache is advisory: a store failure on read degrades to a miss, on
// write to a no-op. It never fails a request.
package matchcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
)

// DefaultTTL bounds how long a cached match list stays valid. Content edits
// invalidate earlier, via the fingerprint in the key.
const DefaultTTL = 15 * time.Minute

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// resultDTO is the storage shape of one match result.
type resultDTO struct {
	OfferID       string  `json:"offer_id"`
	Score         float64 `json:"score"`
	IngestionDate string  `json:"ingestion_date,omitempty"`
}

// Cache stores match result lists in a TTL'd key-value store.
type Cache struct {
	store      store
	keyPrefix  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:      s,
		keyPrefix:  "jobmatch:match_cache:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithKeyPrefix overrides the key namespace prefix.
func (c *Cache) WithKeyPrefix(prefix string) *Cache {
	if prefix != "" {
		c.keyPrefix = prefix + "match_cache:"
	}
	return c
}

// Get returns the cached match list for the key, or ok=false on a miss.
// Store failures are logged and reported as misses.
func (c *Cache) Get(ctx context.Context, key match.CacheKey) ([]match.Result, bool) {
	data, err := c.store.Get(ctx, c.keyPrefix+key.String())
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read match cache",
				zap.String("profile_id", key.ProfileID), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	var dtos []resultDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		c.logger.Warn("Failed to decode cached match results",
			zap.String("profile_id", key.ProfileID), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	results := make([]match.Result, len(dtos))
	for i, d := range dtos {
		results[i] = match.NewResult(d.OfferID, d.Score, d.IngestionDate)
	}

	c.incCache("hit")
	return results, true
}

// Put stores a match list under the key with the configured TTL.
// Store failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, key match.CacheKey, results []match.Result) {
	dtos := make([]resultDTO, len(results))
	for i, r := range results {
		dtos[i] = resultDTO{
			OfferID:       r.OfferID(),
			Score:         r.Score(),
			IngestionDate: r.IngestionDate(),
		}
	}

	data, err := json.Marshal(dtos)
	if err != nil {
		c.logger.Warn("Failed to encode match results for cache",
			zap.String("profile_id", key.ProfileID), zap.Error(err))
		return
	}

	if err := c.store.SetWithTTL(ctx, c.keyPrefix+key.String(), data, c.ttl); err != nil {
		c.logger.Warn("Failed to write match cache",
			zap.String("profile_id", key.ProfileID), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
