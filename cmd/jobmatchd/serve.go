package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/config"
	"github.com/kailas-cloud/jobmatch/internal/db"
	dbMemory "github.com/kailas-cloud/jobmatch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/jobmatch/internal/db/redis"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	logpkg "github.com/kailas-cloud/jobmatch/internal/logger"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
	"github.com/kailas-cloud/jobmatch/internal/repository/embcache"
	"github.com/kailas-cloud/jobmatch/internal/repository/matchcache"
	"github.com/kailas-cloud/jobmatch/internal/repository/offersearch"
	chiTransport "github.com/kailas-cloud/jobmatch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/jobmatch/internal/transport/openai"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	matchinguc "github.com/kailas-cloud/jobmatch/internal/usecase/matching"
	"github.com/kailas-cloud/jobmatch/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the matching API server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	env := flagEnv
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, err := logpkg.New(env, level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting jobmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create database store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	case "memory":
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMatchingMetrics()

	// Build embedder chain (composition root)
	embedder := buildEmbedder(cfg.Embedding, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	searchRepo := offersearch.New(store).WithKeyPrefix(cfg.Storage.KeyPrefix)
	if err := searchRepo.EnsureIndexes(ctx, cfg.Embedding.Dimensions); err != nil {
		logger.Fatal("Failed to ensure offer indexes", zap.Error(err))
	}

	resultCache := matchcache.New(
		store,
		time.Duration(cfg.Matching.CacheTTLMin)*time.Minute,
		metrics.MatchCacheTotal,
		logger,
	).WithKeyPrefix(cfg.Storage.KeyPrefix)

	// Use case services
	matchSvc := matchinguc.New(searchRepo, resultCache, embedder, logger).
		WithConcurrency(cfg.Matching.MaxConcurrency).
		WithRequestTimeout(time.Duration(cfg.Matching.RequestTimeoutSec) * time.Second)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	// HTTP server
	server := chiTransport.NewServer(matchSvc, healthSvc, logger).
		WithTopKLimits(cfg.Matching.DefaultTopK, cfg.Matching.MaxTopK)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instruction.
// Provider "zero" (or empty) selects the all-zero mock embedder.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) domain.Embedder {
	var embedder domain.Embedder

	if cfg.Provider == "" || cfg.Provider == "zero" {
		embedder = &domain.ZeroEmbedder{Dim: cfg.Dimensions}
	} else {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
		// Cache only real providers: zero vectors are cheaper to recompute
		// than to fetch.
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix goes outermost so the cache key includes it
	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	return embedder
}

// embeddingHealthChecker adapts domain.Embedder to the health check contract.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
