package matching

import (
	"context"

	"github.com/kailas-cloud/jobmatch/internal/domain/match"
)

// searcher is the consumer interface for vector retrieval (ISP).
type searcher interface {
	FindNearest(ctx context.Context, query []float64, topK int, useTitleIndex bool) ([]match.Result, error)
	ResolveDetails(ctx context.Context, offerIDs []string, ingestionDates []string) ([]match.OfferDetails, error)
}

// resultCache is the consumer interface for the advisory match cache (ISP).
// Implementations never fail a request: a broken read is a miss, a broken
// write is a no-op.
type resultCache interface {
	Get(ctx context.Context, key match.CacheKey) ([]match.Result, bool)
	Put(ctx context.Context, key match.CacheKey, results []match.Result)
}
