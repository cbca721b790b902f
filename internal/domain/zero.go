package domain

import (
	"context"
	"fmt"
)

// Compile-time checks: ZeroEmbedder implements both embedding contracts.
var (
	_ Embedder      = (*ZeroEmbedder)(nil)
	_ BatchEmbedder = (*ZeroEmbedder)(nil)
)

// ZeroEmbedder returns an all-zero vector for every text. It is the mock
// execution mode for local runs and tests: downstream cosine scoring treats
// a zero vector as the defined 0.0-similarity fallback, so the full matching
// path stays exercisable without an embedding provider.
type ZeroEmbedder struct {
	Dim int
}

// Embed returns a zero vector of the configured dimension.
func (z *ZeroEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	if text == "" {
		return EmbeddingResult{}, fmt.Errorf("zero embed: %w", ErrEmptyInput)
	}
	return EmbeddingResult{Embedding: make([]float64, z.Dim)}, nil
}

// BatchEmbed returns one zero vector per text.
func (z *ZeroEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return BatchEmbeddingResult{}, fmt.Errorf("zero batch embed: %w", ErrEmptyInput)
	}
	embeddings := make([][]float64, len(texts))
	for i, t := range texts {
		if t == "" {
			return BatchEmbeddingResult{}, fmt.Errorf("zero batch embed [%d]: %w", i, ErrEmptyInput)
		}
		embeddings[i] = make([]float64, z.Dim)
	}
	return BatchEmbeddingResult{Embeddings: embeddings}, nil
}
