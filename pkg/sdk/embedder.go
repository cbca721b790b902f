package jobmatch

import "context"

// Embedder converts text to vector embeddings. Required for profile
// matching and for offer upserts without precomputed vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
// Optional: when the provided Embedder also implements BatchEmbedder,
// profile matching embeds title and CV text in one round trip.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float64
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float64
	PromptTokens int
	TotalTokens  int
}
