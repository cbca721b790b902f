// Package db defines the storage facade for the offer corpus, the vector
// indexes, and the TTL'd key-value space backing the caches.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	KVStore
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// HashStore provides hash-based document operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// IndexDefinition describes a vector index over hash documents.
type IndexDefinition struct {
	Name        string   // FT index name
	Prefix      string   // key prefix of indexed hashes
	VectorField string   // hash field holding the embedding (little-endian float32)
	Dimensions  int      // embedding dimension
	TagFields   []string // additional TAG fields (id, ingestion_date, ...)
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	EnsureIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// KNNQuery is a top-k nearest-neighbor query against one vector index.
type KNNQuery struct {
	IndexName    string
	Vector       []float64
	K            int
	ReturnFields []string
}

// TagQuery selects hash documents whose TAG fields match any of the given
// values, ANDed across fields. Used for partition-pruned detail lookups.
type TagQuery struct {
	IndexName    string
	Tags         map[string][]string // field -> allowed values (OR within a field)
	ReturnFields []string
	Limit        int
}

// SearchEntry is one document returned by a search.
type SearchEntry struct {
	Key      string
	Distance float64 // cosine distance in [0,2]; meaningful for KNN only
	Fields   map[string]string
}

// SearchResult holds search output.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// Searcher provides read operations over vector indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchTags(ctx context.Context, q *TagQuery) (*SearchResult, error)
}
