package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrShape signals an embedding dimensionality or rank mismatch.
	ErrShape = errors.New("shape mismatch")
	// ErrEmptyInput signals an empty text or vector set where at least one item is required.
	ErrEmptyInput = errors.New("empty input")
	// ErrOfferNotFound signals a missing offer in the corpus.
	ErrOfferNotFound = errors.New("offer not found")
	// ErrBackendUnavailable signals that the vector index or corpus store could not be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ShapeError wraps ErrShape with the offending dimensions.
type ShapeError struct {
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: want dim %d, got %d", ErrShape.Error(), e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error { return ErrShape }

// NewShapeError creates a dimension mismatch error.
func NewShapeError(want, got int) error {
	return &ShapeError{Want: want, Got: got}
}
