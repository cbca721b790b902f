package matchcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/db/memory"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
)

// --- Mocks ---

// brokenStore fails every operation.
type brokenStore struct{}

func (b *brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (b *brokenStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

// --- Tests ---

func testKey() match.CacheKey {
	return match.CacheKey{ProfileID: "p1", Fingerprint: "fp", TopK: 5}
}

func testResults() []match.Result {
	return []match.Result{
		match.NewResult("offer-a", 0.9, "2026-08-01"),
		match.NewResult("offer-b", 0.7, ""),
	}
}

func TestCache_RoundTrip(t *testing.T) {
	c := New(memory.NewStore(), time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	if _, ok := c.Get(ctx, testKey()); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(ctx, testKey(), testResults())

	got, ok := c.Get(ctx, testKey())
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].OfferID() != "offer-a" || got[0].Score() != 0.9 || got[0].IngestionDate() != "2026-08-01" {
		t.Errorf("unexpected first result: %+v", got[0])
	}
	if got[1].IngestionDate() != "" {
		t.Errorf("expected empty date preserved, got %q", got[1].IngestionDate())
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	store := memory.NewStore().WithClock(func() time.Time { return now })
	c := New(store, 10*time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	c.Put(ctx, testKey(), testResults())
	if _, ok := c.Get(ctx, testKey()); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(11 * time.Minute)
	if _, ok := c.Get(ctx, testKey()); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestCache_KeySensitivity(t *testing.T) {
	c := New(memory.NewStore(), time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	c.Put(ctx, testKey(), testResults())

	variants := []match.CacheKey{
		{ProfileID: "p2", Fingerprint: "fp", TopK: 5},
		{ProfileID: "p1", Fingerprint: "other", TopK: 5},
		{ProfileID: "p1", Fingerprint: "fp", TopK: 6},
	}
	for _, k := range variants {
		if _, ok := c.Get(ctx, k); ok {
			t.Errorf("key %+v must not hit the cached entry", k)
		}
	}
}

func TestCache_ReadFailureDegradesToMiss(t *testing.T) {
	c := New(&brokenStore{}, time.Minute, nil, zap.NewNop())

	if _, ok := c.Get(context.Background(), testKey()); ok {
		t.Error("store failure must surface as a miss")
	}
}

func TestCache_WriteFailureIsSwallowed(t *testing.T) {
	c := New(&brokenStore{}, time.Minute, nil, zap.NewNop())

	// Must not panic or propagate anything.
	c.Put(context.Background(), testKey(), testResults())
}

func TestCache_EmptyResultListIsCacheable(t *testing.T) {
	c := New(memory.NewStore(), time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	c.Put(ctx, testKey(), []match.Result{})

	got, ok := c.Get(ctx, testKey())
	if !ok {
		t.Fatal("expected hit for cached empty list")
	}
	if len(got) != 0 {
		t.Errorf("expected empty list, got %d results", len(got))
	}
}

func TestCache_DefaultTTLApplied(t *testing.T) {
	c := New(memory.NewStore(), 0, nil, zap.NewNop())
	if c.ttl != DefaultTTL {
		t.Errorf("expected default TTL %v, got %v", DefaultTTL, c.ttl)
	}
}
