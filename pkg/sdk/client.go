package jobmatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/db"
	dbMemory "github.com/kailas-cloud/jobmatch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/jobmatch/internal/db/redis"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
	"github.com/kailas-cloud/jobmatch/internal/repository/matchcache"
	"github.com/kailas-cloud/jobmatch/internal/repository/offersearch"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	matchinguc "github.com/kailas-cloud/jobmatch/internal/usecase/matching"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultDimensions       = 384
	defaultKeyPrefix        = "jobmatch:"
	defaultTopK             = 10
)

// Internal interfaces for test substitution.
type matchUseCase interface {
	Match(ctx context.Context, titleEmb, cvEmb []float64, topK int) ([]match.Result, error)
	MatchUser(ctx context.Context, userID string, profiles []profile.Profile, topK int) ([]matchinguc.UserMatch, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the jobmatch SDK entry point.
type Client struct {
	store     db.Store
	matchSvc  matchUseCase
	healthSvc healthUseCase
	offers    *OfferService
	obs       *observer
}

// New creates a jobmatch Client and connects to the database.
// The provided context is used for the initial readiness check and
// index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: defaultDimensions,
		keyPrefix:        defaultKeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("jobmatch: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(ctx, store, cfg, obs)
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return dbMemory.NewStore(), nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("jobmatch: create redis store: %w", err)
		}
		return s, nil
	case "":
		return nil, errors.New("jobmatch: database required (use WithRedis or WithMemory)")
	default:
		return nil, fmt.Errorf("jobmatch: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	searchRepo := offersearch.New(store).WithKeyPrefix(cfg.keyPrefix)
	if err := searchRepo.EnsureIndexes(ctx, cfg.vectorDimensions); err != nil {
		store.Close()
		return nil, fmt.Errorf("jobmatch: ensure offer indexes: %w", err)
	}

	var cacheTotal *prometheus.CounterVec
	if cfg.metricsReg != nil {
		cacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobmatch",
			Subsystem: "client",
			Name:      "match_cache_total",
			Help:      "Result cache hits and misses.",
		}, []string{"result"})
		if err := registerOrReuse(cfg.metricsReg, &cacheTotal); err != nil {
			store.Close()
			return nil, err
		}
	}

	// Internal services log through zap; the client surface reports
	// through the slog-based observer instead.
	internalLog := zap.NewNop()

	resultCache := matchcache.New(store, cfg.cacheTTL, cacheTotal, internalLog).
		WithKeyPrefix(cfg.keyPrefix)

	domEmb := newDomainEmbedder(cfg.embedder)

	matchSvc := matchinguc.New(searchRepo, resultCache, domEmb, internalLog).
		WithConcurrency(cfg.maxConcurrency).
		WithRequestTimeout(cfg.requestTimeout)

	return &Client{
		store:     store,
		matchSvc:  matchSvc,
		healthSvc: healthuc.New(store, nil),
		offers: &OfferService{
			store:      store,
			embedder:   domEmb,
			keyPrefix:  cfg.keyPrefix,
			dimensions: cfg.vectorDimensions,
			obs:        obs,
		},
		obs: obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Match runs a single raw-embedding query against the offer corpus.
// The CV embedding queries the description index; when only a title
// embedding is given, the title index is used instead. topK <= 0 selects
// the default of 10.
func (c *Client) Match(
	ctx context.Context, titleEmb, cvEmb []float64, topK int,
) (out []Match, err error) {
	start := time.Now()
	defer func() { c.obs.observe("match", start, err) }()

	if topK <= 0 {
		topK = defaultTopK
	}
	results, err := c.matchSvc.Match(ctx, titleEmb, cvEmb, topK)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	return toMatches(results), nil
}

// MatchUser matches every profile of a user against the offer corpus and
// merges the per-profile rankings into one list of at most topK offers.
// A failing profile is skipped rather than failing the call.
func (c *Client) MatchUser(
	ctx context.Context, userID string, profiles []Profile, topK int,
) (out []UserMatch, err error) {
	start := time.Now()
	defer func() { c.obs.observe("match_user", start, err) }()

	if topK <= 0 {
		topK = defaultTopK
	}
	merged, err := c.matchSvc.MatchUser(ctx, userID, toProfiles(profiles), topK)
	if err != nil {
		return nil, fmt.Errorf("match user: %w", err)
	}
	return toUserMatches(merged), nil
}

// Offers returns the offer ingestion service.
func (c *Client) Offers() *OfferService {
	return c.offers
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component -> "ok"/"error"
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// newDomainEmbedder adapts the public Embedder to the internal contract.
// The batch-capable wrapper is returned only when the inner provider
// batches natively, so the per-text fallback stays in one place.
func newDomainEmbedder(inner Embedder) domain.Embedder {
	if inner == nil {
		return noopEmbedder{}
	}
	base := &embedderAdapter{inner: inner}
	if _, ok := inner.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: base}
	}
	return base
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// batchEmbedderAdapter additionally exposes the native batch endpoint.
type batchEmbedderAdapter struct {
	*embedderAdapter
}

func (a *batchEmbedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be := a.inner.(BatchEmbedder)
	r, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"jobmatch: embedder not configured (use WithEmbedder for profile matching)",
	)
}
