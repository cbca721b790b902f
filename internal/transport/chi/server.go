// Package chi exposes the matching API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
	healthuc "github.com/kailas-cloud/jobmatch/internal/usecase/health"
	matchinguc "github.com/kailas-cloud/jobmatch/internal/usecase/matching"
)

// Error response codes.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeOfferNotFound          = "offer_not_found"
	codeBackendUnavailable     = "backend_unavailable"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the matching API.
type Server struct {
	matching      *matchinguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	defaultTopK   int
	maxTopK       int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(matching *matchinguc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		matching:    matching,
		health:      health,
		logger:      logger,
		defaultTopK: 10,
		maxTopK:     100,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrShape, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmptyInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrOfferNotFound, http.StatusNotFound, codeOfferNotFound),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, codeBackendUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
	}
	return s
}

// WithTopKLimits overrides the default and maximum result list sizes.
func (s *Server) WithTopKLimits(defaultTopK, maxTopK int) *Server {
	if defaultTopK > 0 {
		s.defaultTopK = defaultTopK
	}
	if maxTopK > 0 {
		s.maxTopK = maxTopK
	}
	return s
}

// Routes mounts all API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/match", s.Match)
	r.Post("/api/v1/users/{userID}/matches", s.MatchUser)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type matchRequest struct {
	TitleEmbedding []float64 `json:"title_embedding,omitempty"`
	CVEmbedding    []float64 `json:"cv_embedding,omitempty"`
	TopK           int       `json:"top_k,omitempty"`
}

type matchItem struct {
	OfferID       string  `json:"offer_id"`
	Score         float64 `json:"score"`
	IngestionDate *string `json:"ingestion_date,omitempty"`
}

type matchResponse struct {
	Matches []matchItem `json:"matches"`
}

// Match handles POST /api/v1/match: a single raw-embedding query.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("single", "error").Inc()
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK, "single")
	if !ok {
		return
	}
	if len(req.TitleEmbedding) == 0 && len(req.CVEmbedding) == 0 {
		metrics.MatchRequestsTotal.WithLabelValues("single", "error").Inc()
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"at least one of title_embedding and cv_embedding is required")
		return
	}

	results, err := s.matching.Match(r.Context(), req.TitleEmbedding, req.CVEmbedding, topK)
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("single", "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	items := make([]matchItem, len(results))
	for i, res := range results {
		items[i] = matchItem{
			OfferID:       res.OfferID(),
			Score:         res.Score(),
			IngestionDate: optString(res.IngestionDate()),
		}
	}

	metrics.MatchRequestsTotal.WithLabelValues("single", "success").Inc()
	writeJSON(w, http.StatusOK, matchResponse{Matches: items})
}

type profileRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Experiences []string `json:"experiences,omitempty"`
	HardSkills  []string `json:"hard_skills,omitempty"`
	SoftSkills  []string `json:"soft_skills,omitempty"`
}

type userMatchRequest struct {
	Profiles []profileRequest `json:"profiles"`
	TopK     int              `json:"top_k,omitempty"`
}

type userMatchItem struct {
	OfferID       string   `json:"offer_id"`
	Score         float64  `json:"score"`
	Title         string   `json:"title"`
	Company       string   `json:"company,omitempty"`
	Description   string   `json:"description,omitempty"`
	ProfileNames  []string `json:"profile_names"`
	IngestionDate *string  `json:"ingestion_date,omitempty"`
}

type userMatchResponse struct {
	UserID  string          `json:"user_id"`
	Matches []userMatchItem `json:"matches"`
}

// MatchUser handles POST /api/v1/users/{userID}/matches: multi-profile
// matching with merged results. An empty match list is a 200, not an error.
func (s *Server) MatchUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req userMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("user", "error").Inc()
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK, "user")
	if !ok {
		return
	}

	profiles := make([]profile.Profile, 0, len(req.Profiles))
	for _, p := range req.Profiles {
		if p.ID == "" {
			metrics.MatchRequestsTotal.WithLabelValues("user", "error").Inc()
			writeError(w, http.StatusBadRequest, codeValidationFailed, "profile id is required")
			return
		}
		profiles = append(profiles,
			profile.New(p.ID, p.Name, p.Title, p.Experiences, p.HardSkills, p.SoftSkills))
	}

	merged, err := s.matching.MatchUser(r.Context(), userID, profiles, topK)
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("user", "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	items := make([]userMatchItem, len(merged))
	for i, m := range merged {
		items[i] = userMatchItem{
			OfferID:       m.OfferID,
			Score:         m.Score,
			Title:         m.Details.Title,
			Company:       m.Details.Company,
			Description:   m.Details.Description,
			ProfileNames:  m.ProfileNames,
			IngestionDate: optString(m.IngestionDate),
		}
	}

	metrics.MatchRequestsTotal.WithLabelValues("user", "success").Inc()
	writeJSON(w, http.StatusOK, userMatchResponse{UserID: userID, Matches: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// resolveTopK applies the default and validates the upper bound. On a bad
// value it writes the error response and returns ok=false.
func (s *Server) resolveTopK(w http.ResponseWriter, topK int, kind string) (int, bool) {
	if topK == 0 {
		return s.defaultTopK, true
	}
	if topK < 0 || topK > s.maxTopK {
		metrics.MatchRequestsTotal.WithLabelValues(kind, "error").Inc()
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"top_k must be between 1 and "+strconv.Itoa(s.maxTopK))
		return 0, false
	}
	return topK, true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrShape,
		domain.ErrEmptyInput,
		domain.ErrOfferNotFound,
		domain.ErrBackendUnavailable,
		domain.ErrEmbeddingProviderError,
	}
	var se *domain.ShapeError
	if errors.As(err, &se) {
		return se.Error()
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
