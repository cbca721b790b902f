package jobmatch

import "github.com/kailas-cloud/jobmatch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrShape                  = domain.ErrShape
	ErrEmptyInput             = domain.ErrEmptyInput
	ErrOfferNotFound          = domain.ErrOfferNotFound
	ErrBackendUnavailable     = domain.ErrBackendUnavailable
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
