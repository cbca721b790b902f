// Package memory implements db.Store with in-process maps and exact
// brute-force KNN. It backs the mock execution mode and the test suites:
// no Redis required, identical contracts.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type kvEntry struct {
	data      []byte
	expiresAt time.Time // zero = no expiry
}

type indexDef struct {
	prefix      string
	vectorField string
	dimensions  int
}

// Store is an in-memory db.Store.
type Store struct {
	mu      sync.RWMutex
	kv      map[string]kvEntry
	hashes  map[string]map[string]string
	indexes map[string]indexDef

	now func() time.Time // injectable clock for TTL tests
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		kv:      make(map[string]kvEntry),
		hashes:  make(map[string]map[string]string),
		indexes: make(map[string]indexDef),
		now:     time.Now,
	}
}

// WithClock overrides the clock used for TTL checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Get retrieves a value by key, honoring expiry.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.kv[key]
	s.mu.RUnlock()

	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.kv, key)
		s.mu.Unlock()
		return nil, db.ErrKeyNotFound
	}
	return entry.data, nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.kv[key] = kvEntry{data: value}
	s.mu.Unlock()
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.kv[key] = kvEntry{data: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// HSet sets hash fields, merging with existing ones.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

// HGetAll returns a copy of all fields of a hash. Missing keys yield an
// empty map, matching the Redis HGETALL contract.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFields(s.hashes[key]), nil
}

// HGetAllMulti fetches all fields for multiple hashes.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, key := range keys {
		m, err := s.HGetAll(ctx, key)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// EnsureIndex registers an index definition.
func (s *Store) EnsureIndex(_ context.Context, def *db.IndexDefinition) error {
	s.mu.Lock()
	s.indexes[def.Name] = indexDef{
		prefix:      def.Prefix,
		vectorField: def.VectorField,
		dimensions:  def.Dimensions,
	}
	s.mu.Unlock()
	return nil
}

// IndexExists reports whether an index has been registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	_, ok := s.indexes[name]
	s.mu.RUnlock()
	return ok, nil
}

// SearchKNN scans every indexed hash and ranks by exact cosine distance.
// Ordering matches the Redis driver: distance ascending, key ascending on ties.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	type scored struct {
		key      string
		distance float64
		fields   map[string]string
	}

	var candidates []scored
	for key, fields := range s.hashes {
		if !strings.HasPrefix(key, def.prefix) {
			continue
		}
		raw, ok := fields[def.vectorField]
		if !ok {
			continue
		}
		vec := db.VectorFromBytes(raw)
		if len(vec) != len(q.Vector) {
			continue
		}
		candidates = append(candidates, scored{
			key:      key,
			distance: cosineDistance(q.Vector, vec),
			fields:   fields,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].key < candidates[j].key
	})

	if len(candidates) > q.K {
		candidates = candidates[:q.K]
	}

	entries := make([]db.SearchEntry, len(candidates))
	for i, c := range candidates {
		entries[i] = db.SearchEntry{
			Key:      c.key,
			Distance: c.distance,
			Fields:   projectFields(c.fields, q.ReturnFields),
		}
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// SearchTags scans indexed hashes for TAG field membership.
func (s *Store) SearchTags(_ context.Context, q *db.TagQuery) (*db.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var keys []string
	for key, fields := range s.hashes {
		if !strings.HasPrefix(key, def.prefix) {
			continue
		}
		if matchesTags(fields, q.Tags) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if len(keys) > limit {
		keys = keys[:limit]
	}

	entries := make([]db.SearchEntry, len(keys))
	for i, key := range keys {
		entries[i] = db.SearchEntry{
			Key:    key,
			Fields: projectFields(s.hashes[key], q.ReturnFields),
		}
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func matchesTags(fields map[string]string, tags map[string][]string) bool {
	for field, values := range tags {
		if len(values) == 0 {
			continue
		}
		got, ok := fields[field]
		if !ok {
			return false
		}
		found := false
		for _, v := range values {
			if got == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func projectFields(fields map[string]string, returnFields []string) map[string]string {
	if len(returnFields) == 0 {
		return copyFields(fields)
	}
	out := make(map[string]string, len(returnFields))
	for _, f := range returnFields {
		if v, ok := fields[f]; ok {
			out[f] = v
		}
	}
	return out
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// cosineDistance returns 1 - cos(a, b) in [0,2]; zero-norm inputs yield
// distance 1 (cosine 0), mirroring the engine's zero-vector fallback.
func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
