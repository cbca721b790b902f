// Package health aggregates component availability checks behind one report.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        dbPinger
	embedding embeddingChecker
}

// New creates a Service. embedding can be nil when the configured provider
// has no health endpoint (the zero provider).
func New(db dbPinger, embedding embeddingChecker) *Service {
	return &Service{db: db, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["database"] = CheckOK
	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	}

	if s.embedding != nil {
		checks["embedding"] = CheckOK
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
