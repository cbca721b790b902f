package health

import "context"

// dbPinger is the consumer interface for database availability (ISP).
type dbPinger interface {
	Ping(ctx context.Context) error
}

// embeddingChecker is the consumer interface for provider availability (ISP).
type embeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
