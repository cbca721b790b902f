// Package matching orchestrates multi-profile offer matching: fan-out over a
// user's profiles, per-profile retrieval with result caching, and a merged,
// detail-resolved top-k.
package matching

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

const (
	// DefaultMaxConcurrency bounds the per-user profile fan-out.
	DefaultMaxConcurrency = 4
	// DefaultRequestTimeout bounds one whole MatchUser call.
	DefaultRequestTimeout = 30 * time.Second
)

// UserMatch is one merged result row for a user: the best score any of the
// user's profiles achieved for the offer, the names of every profile that
// surfaced it, and the resolved display details.
type UserMatch struct {
	OfferID       string
	Score         float64
	IngestionDate string
	ProfileNames  []string
	Details       match.OfferDetails
}

// Service is the match orchestrator.
type Service struct {
	search         searcher
	cache          resultCache
	embedder       domain.Embedder
	logger         *zap.Logger
	maxConcurrency int
	requestTimeout time.Duration
}

// New creates a match orchestrator.
func New(search searcher, cache resultCache, embedder domain.Embedder, logger *zap.Logger) *Service {
	return &Service{
		search:         search,
		cache:          cache,
		embedder:       embedder,
		logger:         logger,
		maxConcurrency: DefaultMaxConcurrency,
		requestTimeout: DefaultRequestTimeout,
	}
}

// WithConcurrency overrides the profile fan-out bound.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.maxConcurrency = n
	}
	return s
}

// WithRequestTimeout overrides the per-request deadline.
func (s *Service) WithRequestTimeout(d time.Duration) *Service {
	if d > 0 {
		s.requestTimeout = d
	}
	return s
}

// Match runs a single raw-embedding query. The CV embedding queries the
// description index; when only a title embedding is given, it queries the
// title index instead. CV similarity is the primary ranking signal, so it
// wins when both embeddings are present.
func (s *Service) Match(
	ctx context.Context, titleEmb, cvEmb []float64, topK int,
) ([]match.Result, error) {
	switch {
	case len(cvEmb) > 0:
		return s.search.FindNearest(ctx, cvEmb, topK, false)
	case len(titleEmb) > 0:
		return s.search.FindNearest(ctx, titleEmb, topK, true)
	default:
		return nil, fmt.Errorf("match: no query embedding: %w", domain.ErrEmptyInput)
	}
}

// MatchUser matches every profile of a user against the offer corpus and
// merges the per-profile rankings into one list of at most topK offers.
//
// A failing profile is logged and skipped rather than failing the request:
// with zero usable profiles the result is an empty list, nil error.
func (s *Service) MatchUser(
	ctx context.Context, userID string, profiles []profile.Profile, topK int,
) ([]UserMatch, error) {
	if len(profiles) == 0 {
		return []UserMatch{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	// Fixed pool of workers consuming profile indexes. Each worker writes
	// only its own slots, so the merge below needs no locking.
	perProfile := make([][]match.Result, len(profiles))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.maxConcurrency
	if workers > len(profiles) {
		workers = len(profiles)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := profiles[i]
				results, err := s.matchProfile(ctx, p, topK)
				if err != nil {
					metrics.MatchProfileFailuresTotal.Inc()
					s.logger.Warn("Skipping profile after match failure",
						zap.String("user_id", userID),
						zap.String("profile_id", p.ID()),
						zap.Error(err))
					continue
				}
				perProfile[i] = results
			}
		}()
	}
	for i := range profiles {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	merged := mergeProfiles(profiles, perProfile, topK)
	if len(merged) == 0 {
		return []UserMatch{}, nil
	}

	if err := s.resolveDetails(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// matchProfile produces the ranked offer list for one profile, consulting the
// result cache before embedding and searching.
func (s *Service) matchProfile(
	ctx context.Context, p profile.Profile, topK int,
) ([]match.Result, error) {
	titleText, cvText := p.QueryTexts()
	if cvText == "" {
		return nil, fmt.Errorf("profile has no embeddable content: %w", domain.ErrEmptyInput)
	}

	key := match.CacheKey{ProfileID: p.ID(), Fingerprint: p.Fingerprint(), TopK: topK}
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	cvVec, err := s.embedQuery(ctx, titleText, cvText)
	if err != nil {
		return nil, fmt.Errorf("embed profile: %w", err)
	}

	results, err := s.search.FindNearest(ctx, cvVec, topK, false)
	if err != nil {
		return nil, fmt.Errorf("find nearest: %w", err)
	}

	s.cache.Put(ctx, key, results)
	return results, nil
}

// embedQuery vectorizes the profile texts in one batch call and returns the
// CV vector, which drives retrieval on the description index.
func (s *Service) embedQuery(ctx context.Context, titleText, cvText string) ([]float64, error) {
	if titleText == "" || titleText == cvText {
		res, err := s.embedder.Embed(ctx, cvText)
		if err != nil {
			return nil, err
		}
		return res.Embedding, nil
	}

	res, err := domain.BatchEmbed(ctx, s.embedder, []string{titleText, cvText})
	if err != nil {
		return nil, err
	}
	return res.Embeddings[1], nil
}

// resolveDetails attaches display metadata to the merged rows, restricting
// the lookup to the ingestion-date partitions the rows came from. Offers that
// matched but can no longer be resolved keep a placeholder title.
func (s *Service) resolveDetails(ctx context.Context, merged []UserMatch) error {
	ids := make([]string, len(merged))
	dates := make([]string, len(merged))
	for i, m := range merged {
		ids[i] = m.OfferID
		dates[i] = m.IngestionDate
	}

	details, err := s.search.ResolveDetails(ctx, ids, dates)
	if err != nil {
		return fmt.Errorf("resolve details: %w", err)
	}

	byID := make(map[string]match.OfferDetails, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	for i := range merged {
		if d, ok := byID[merged[i].OfferID]; ok {
			merged[i].Details = d
			continue
		}
		merged[i].Details = match.OfferDetails{
			ID:    merged[i].OfferID,
			Title: match.PlaceholderTitle,
		}
	}
	return nil
}
