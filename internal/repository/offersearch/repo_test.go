package offersearch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/db/memory"
	"github.com/kailas-cloud/jobmatch/internal/domain"
)

const dims = 8

// --- Mocks ---

// failingStore simulates a backend outage.
type failingStore struct{}

func (f *failingStore) SearchKNN(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
	return nil, errors.New("connection refused")
}

func (f *failingStore) SearchTags(context.Context, *db.TagQuery) (*db.SearchResult, error) {
	return nil, errors.New("connection refused")
}

func (f *failingStore) HGetAllMulti(context.Context, []string) ([]map[string]string, error) {
	return nil, errors.New("connection refused")
}

func (f *failingStore) EnsureIndex(context.Context, *db.IndexDefinition) error {
	return errors.New("connection refused")
}

// --- Helpers ---

type offer struct {
	id      string
	title   string
	company string
	desc    string
	date    string
	vec     []float64
}

func newRepo(t *testing.T, offers []offer) *Repo {
	t.Helper()
	store := memory.NewStore()
	repo := New(store)
	if err := repo.EnsureIndexes(context.Background(), dims); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	for _, o := range offers {
		fields := map[string]string{
			"id":             o.id,
			"title":          o.title,
			"company":        o.company,
			"description":    o.desc,
			"ingestion_date": o.date,
			"title_vector":   db.VectorBytes(o.vec),
			"desc_vector":    db.VectorBytes(o.vec),
		}
		if err := store.HSet(context.Background(), "jobmatch:offers:"+o.id, fields); err != nil {
			t.Fatalf("seed offer %s: %v", o.id, err)
		}
	}
	return repo
}

// axisVec returns a unit vector along the given axis.
func axisVec(axis int) []float64 {
	v := make([]float64, dims)
	v[axis] = 1
	return v
}

func testCorpus() []offer {
	offers := make([]offer, 6)
	for i := range offers {
		offers[i] = offer{
			id:      fmt.Sprintf("offer-%d", i),
			title:   fmt.Sprintf("Title %d", i),
			company: "acme",
			desc:    fmt.Sprintf("Description %d", i),
			date:    "2026-08-01",
			vec:     axisVec(i),
		}
	}
	return offers
}

// --- FindNearest ---

func TestFindNearest_ExactMatchScoresNearOne(t *testing.T) {
	repo := newRepo(t, testCorpus())

	results, err := repo.FindNearest(context.Background(), axisVec(2), 3, false)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].OfferID() != "offer-2" {
		t.Errorf("expected offer-2 first, got %q", results[0].OfferID())
	}
	if results[0].Score() <= 0.9999 {
		t.Errorf("exact match score too low: %v", results[0].Score())
	}
}

func TestFindNearest_ScoresDescendingWithinBounds(t *testing.T) {
	repo := newRepo(t, testCorpus())

	results, err := repo.FindNearest(context.Background(), axisVec(0), 6, false)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	for i, r := range results {
		if r.Score() < 0 || r.Score() > 1 {
			t.Errorf("score out of [0,1]: %v", r.Score())
		}
		if i > 0 && results[i-1].Score() < r.Score() {
			t.Errorf("scores not descending at position %d", i)
		}
	}
}

func TestFindNearest_TopKBounds(t *testing.T) {
	repo := newRepo(t, testCorpus())

	for _, k := range []int{1, 3, 5, 10} {
		results, err := repo.FindNearest(context.Background(), axisVec(0), k, false)
		if err != nil {
			t.Fatalf("find nearest k=%d: %v", k, err)
		}
		want := k
		if want > 6 {
			want = 6
		}
		if len(results) != want {
			t.Errorf("k=%d: expected %d results, got %d", k, want, len(results))
		}
	}
}

func TestFindNearest_NoiseRobust(t *testing.T) {
	repo := newRepo(t, testCorpus())

	query := axisVec(3)
	for i := range query {
		query[i] += 1e-3 * float64(i%3)
	}

	results, err := repo.FindNearest(context.Background(), query, 5, false)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if results[0].OfferID() != "offer-3" {
		t.Errorf("expected noisy query to still rank offer-3 first, got %q", results[0].OfferID())
	}
	if results[0].Score() <= 0.99 {
		t.Errorf("noisy exact match score too low: %v", results[0].Score())
	}
}

func TestFindNearest_CarriesIngestionDate(t *testing.T) {
	repo := newRepo(t, testCorpus())

	results, err := repo.FindNearest(context.Background(), axisVec(1), 1, false)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if results[0].IngestionDate() != "2026-08-01" {
		t.Errorf("expected partition date, got %q", results[0].IngestionDate())
	}
}

func TestFindNearest_TitleIndex(t *testing.T) {
	repo := newRepo(t, testCorpus())

	results, err := repo.FindNearest(context.Background(), axisVec(4), 1, true)
	if err != nil {
		t.Fatalf("find nearest (title index): %v", err)
	}
	if results[0].OfferID() != "offer-4" {
		t.Errorf("expected offer-4 via title index, got %q", results[0].OfferID())
	}
}

func TestFindNearest_BackendFailure(t *testing.T) {
	repo := New(&failingStore{})

	_, err := repo.FindNearest(context.Background(), axisVec(0), 3, false)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

// --- FindNearestWithTitles ---

func TestFindNearestWithTitles_JoinsTitles(t *testing.T) {
	repo := newRepo(t, testCorpus())

	results, err := repo.FindNearestWithTitles(context.Background(), axisVec(5), 3, false)
	if err != nil {
		t.Fatalf("find nearest with titles: %v", err)
	}
	if results[0].OfferID() != "offer-5" {
		t.Errorf("expected offer-5 first, got %q", results[0].OfferID())
	}
	if results[0].Title != "Title 5" {
		t.Errorf("expected joined title, got %q", results[0].Title)
	}
}

// --- ResolveDetails ---

func TestResolveDetails_PreservesRequestOrder(t *testing.T) {
	repo := newRepo(t, testCorpus())

	details, err := repo.ResolveDetails(context.Background(),
		[]string{"offer-4", "offer-0", "offer-2"}, nil)
	if err != nil {
		t.Fatalf("resolve details: %v", err)
	}
	wantOrder := []string{"offer-4", "offer-0", "offer-2"}
	if len(details) != len(wantOrder) {
		t.Fatalf("expected %d details, got %d", len(wantOrder), len(details))
	}
	for i, want := range wantOrder {
		if details[i].ID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, details[i].ID)
		}
	}
	if details[0].Title != "Title 4" || details[0].Company != "acme" {
		t.Errorf("unexpected detail row: %+v", details[0])
	}
}

func TestResolveDetails_OmitsMissingIDs(t *testing.T) {
	repo := newRepo(t, testCorpus())

	details, err := repo.ResolveDetails(context.Background(),
		[]string{"offer-1", "ghost", "offer-3"}, nil)
	if err != nil {
		t.Fatalf("resolve details: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected missing id to be omitted, got %d rows", len(details))
	}
	if details[0].ID != "offer-1" || details[1].ID != "offer-3" {
		t.Errorf("unexpected rows: %+v", details)
	}
}

func TestResolveDetails_PrunedByDate(t *testing.T) {
	offers := testCorpus()
	offers[1].date = "2026-07-15"
	repo := newRepo(t, offers)

	// The per-ID dates restrict where each row is searched for: offer-1 is
	// claimed to live in 2026-08-01 but is stored in another partition, so
	// the pruned lookup cannot find it.
	details, err := repo.ResolveDetails(context.Background(),
		[]string{"offer-0", "offer-1"}, []string{"2026-08-01", "2026-08-01"})
	if err != nil {
		t.Fatalf("resolve details: %v", err)
	}
	if len(details) != 1 || details[0].ID != "offer-0" {
		t.Errorf("expected only offer-0 in the 2026-08-01 partition, got %+v", details)
	}
}

func TestResolveDetails_MixedDates(t *testing.T) {
	offers := testCorpus()
	offers[1].date = "" // unpartitioned offer
	repo := newRepo(t, offers)

	// A dateless offer must not be routed through the date pre-filter of its
	// dated neighbors: it resolves via the unrestricted lookup instead.
	details, err := repo.ResolveDetails(context.Background(),
		[]string{"offer-0", "offer-1", "offer-2"},
		[]string{"2026-08-01", "", "2026-08-01"})
	if err != nil {
		t.Fatalf("resolve details: %v", err)
	}
	wantOrder := []string{"offer-0", "offer-1", "offer-2"}
	if len(details) != len(wantOrder) {
		t.Fatalf("expected %d details, got %d: %+v", len(wantOrder), len(details), details)
	}
	for i, want := range wantOrder {
		if details[i].ID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, details[i].ID)
		}
	}
	if details[1].Title != "Title 1" {
		t.Errorf("expected dateless offer fully resolved, got %+v", details[1])
	}
}

// hashFailingStore answers searches but fails direct hash reads.
type hashFailingStore struct {
	failingStore
}

func (s *hashFailingStore) SearchTags(context.Context, *db.TagQuery) (*db.SearchResult, error) {
	return &db.SearchResult{}, nil
}

func TestResolveDetails_DatelessFailureSurfaces(t *testing.T) {
	// The unrestricted branch shares the error contract of the pruned one.
	repo := New(&hashFailingStore{})

	_, err := repo.ResolveDetails(context.Background(),
		[]string{"offer-0", "offer-1"}, []string{"2026-08-01", ""})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestResolveDetails_EmptyInput(t *testing.T) {
	repo := newRepo(t, testCorpus())

	details, err := repo.ResolveDetails(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("resolve details: %v", err)
	}
	if len(details) != 0 {
		t.Errorf("expected no details, got %d", len(details))
	}
}

func TestResolveDetails_BackendFailure(t *testing.T) {
	repo := New(&failingStore{})

	_, err := repo.ResolveDetails(context.Background(), []string{"a"}, nil)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

// ScoreFromDistance sanity at the repo boundary: an opposite-direction vector
// must clamp to a score of 0, not go negative.
func TestFindNearest_OppositeVectorScoresZero(t *testing.T) {
	opposite := axisVec(0)
	opposite[0] = -1
	repo := newRepo(t, []offer{{
		id: "anti", title: "t", date: "2026-08-01", vec: opposite,
	}})

	results, err := repo.FindNearest(context.Background(), axisVec(0), 1, false)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if math.Abs(results[0].Score()) > 1e-6 {
		t.Errorf("expected score 0 for opposite vector, got %v", results[0].Score())
	}
}
