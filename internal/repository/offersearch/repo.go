// Package offersearch implements top-k retrieval and detail resolution over
// the precomputed offer embedding corpus.
package offersearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/vector"
	"github.com/kailas-cloud/jobmatch/internal/metrics"
)

// Offer hash field names.
const (
	fieldID            = "id"
	fieldTitle         = "title"
	fieldCompany       = "company"
	fieldDescription   = "description"
	fieldIngestionDate = "ingestion_date"
	fieldTitleVector   = "title_vector"
	fieldDescVector    = "desc_vector"
)

// store is the consumer interface for offer search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchTags(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	EnsureIndex(ctx context.Context, def *db.IndexDefinition) error
}

// TitledResult is a match result joined with the offer title. Produced only
// by FindNearestWithTitles, which pays for the metadata join.
type TitledResult struct {
	match.Result
	Title string
}

// Repo performs nearest-neighbor retrieval over the two offer embedding
// indexes (title and description) without loading the corpus into memory.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates an offer search repository.
func New(s store) *Repo {
	return &Repo{store: s, keyPrefix: "jobmatch:"}
}

// WithKeyPrefix overrides the key namespace prefix.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.keyPrefix = prefix
	}
	return r
}

// EnsureIndexes creates the title and description vector indexes if absent.
func (r *Repo) EnsureIndexes(ctx context.Context, dimensions int) error {
	defs := []db.IndexDefinition{
		{
			Name:        r.titleIndex(),
			Prefix:      r.offerPrefix(),
			VectorField: fieldTitleVector,
			Dimensions:  dimensions,
			TagFields:   []string{fieldID, fieldIngestionDate},
		},
		{
			Name:        r.descIndex(),
			Prefix:      r.offerPrefix(),
			VectorField: fieldDescVector,
			Dimensions:  dimensions,
			TagFields:   []string{fieldID, fieldIngestionDate},
		},
	}
	for i := range defs {
		if err := r.store.EnsureIndex(ctx, &defs[i]); err != nil {
			return fmt.Errorf("ensure index %s: %w", defs[i].Name, err)
		}
	}
	return nil
}

// FindNearest returns the top-k offers most similar to the query embedding,
// ordered by score descending (offer ID ascending on ties). The cheap path:
// no metadata fields are joined, only IDs, scores, and partition dates.
func (r *Repo) FindNearest(
	ctx context.Context, query []float64, topK int, useTitleIndex bool,
) ([]match.Result, error) {
	entries, err := r.searchKNN(ctx, query, topK, useTitleIndex, []string{fieldIngestionDate})
	if err != nil {
		return nil, err
	}

	results := make([]match.Result, len(entries))
	for i, e := range entries {
		results[i] = match.NewResult(
			r.offerID(e.Key),
			vector.ScoreFromDistance(e.Distance),
			e.Fields[fieldIngestionDate],
		)
	}
	match.SortByScore(results)
	return results, nil
}

// FindNearestWithTitles behaves like FindNearest but additionally joins the
// title field. Strictly more expensive; intended only when display text is
// needed without a second round trip.
func (r *Repo) FindNearestWithTitles(
	ctx context.Context, query []float64, topK int, useTitleIndex bool,
) ([]TitledResult, error) {
	entries, err := r.searchKNN(ctx, query, topK, useTitleIndex,
		[]string{fieldIngestionDate, fieldTitle})
	if err != nil {
		return nil, err
	}

	results := make([]TitledResult, len(entries))
	for i, e := range entries {
		results[i] = TitledResult{
			Result: match.NewResult(
				r.offerID(e.Key),
				vector.ScoreFromDistance(e.Distance),
				e.Fields[fieldIngestionDate],
			),
			Title: e.Fields[fieldTitle],
		}
	}
	// Same ordering contract as FindNearest.
	sortTitled(results)
	return results, nil
}

// ResolveDetails fetches display metadata for the given offer IDs.
// ingestionDates is parallel to offerIDs: an ID with a known date is looked
// up with its date partitions as a pre-filter (cost control on
// warehouse-scale backends), while an ID with an empty date goes through an
// unrestricted per-key lookup. Pruning only narrows where a row is searched
// for, never which rows resolve. IDs with no matching row are silently
// omitted.
func (r *Repo) ResolveDetails(
	ctx context.Context, offerIDs []string, ingestionDates []string,
) ([]match.OfferDetails, error) {
	if len(offerIDs) == 0 {
		return nil, nil
	}

	datedIDs, dates, datelessIDs := splitByDate(offerIDs, ingestionDates)

	var rows []map[string]string
	if len(datedIDs) > 0 {
		pruned, err := r.resolvePruned(ctx, datedIDs, dates)
		if err != nil {
			return nil, err
		}
		rows = pruned
	}
	if len(datelessIDs) > 0 {
		direct, err := r.resolveUnrestricted(ctx, datelessIDs)
		if err != nil {
			return nil, err
		}
		rows = append(rows, direct...)
	}

	byID := make(map[string]match.OfferDetails, len(rows))
	for _, row := range rows {
		id := row[fieldID]
		if id == "" {
			continue
		}
		byID[id] = match.OfferDetails{
			ID:          id,
			Title:       row[fieldTitle],
			Company:     row[fieldCompany],
			Description: row[fieldDescription],
		}
	}

	details := make([]match.OfferDetails, 0, len(offerIDs))
	for _, id := range offerIDs {
		if d, ok := byID[id]; ok {
			details = append(details, d)
		}
	}
	return details, nil
}

func (r *Repo) searchKNN(
	ctx context.Context, query []float64, topK int, useTitleIndex bool, returnFields []string,
) ([]db.SearchEntry, error) {
	indexName, label := r.descIndex(), "description"
	if useTitleIndex {
		indexName, label = r.titleIndex(), "title"
	}

	start := time.Now()
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Vector:       query,
		K:            topK,
		ReturnFields: returnFields,
	})
	metrics.VectorSearchDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w: %w", label, domain.ErrBackendUnavailable, err)
	}
	if sr == nil {
		return nil, nil
	}
	return sr.Entries, nil
}

// resolvePruned restricts the lookup to the date partitions implied by the
// provided ingestion dates via TAG pre-filters on the index.
func (r *Repo) resolvePruned(
	ctx context.Context, offerIDs, dates []string,
) ([]map[string]string, error) {
	sr, err := r.store.SearchTags(ctx, &db.TagQuery{
		IndexName: r.descIndex(),
		Tags: map[string][]string{
			fieldID:            offerIDs,
			fieldIngestionDate: dates,
		},
		ReturnFields: []string{fieldID, fieldTitle, fieldCompany, fieldDescription},
		Limit:        len(offerIDs),
	})
	if err != nil {
		return nil, fmt.Errorf("resolve details (pruned): %w: %w", domain.ErrBackendUnavailable, err)
	}

	rows := make([]map[string]string, len(sr.Entries))
	for i, e := range sr.Entries {
		rows[i] = e.Fields
	}
	return rows, nil
}

// resolveUnrestricted reads offer hashes directly by key.
func (r *Repo) resolveUnrestricted(
	ctx context.Context, offerIDs []string,
) ([]map[string]string, error) {
	keys := make([]string, len(offerIDs))
	for i, id := range offerIDs {
		keys[i] = r.offerKey(id)
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("resolve details: %w: %w", domain.ErrBackendUnavailable, err)
	}
	return rows, nil
}

func (r *Repo) offerPrefix() string { return r.keyPrefix + "offers:" }
func (r *Repo) offerKey(id string) string {
	return r.offerPrefix() + id
}
func (r *Repo) offerID(key string) string {
	prefix := r.offerPrefix()
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
func (r *Repo) titleIndex() string { return r.keyPrefix + "offers:title_idx" }
func (r *Repo) descIndex() string  { return r.keyPrefix + "offers:desc_idx" }

func sortTitled(results []TitledResult) {
	// Delegate ordering to the shared rule, then re-attach titles.
	plain := make([]match.Result, len(results))
	byID := make(map[string]string, len(results))
	for i, t := range results {
		plain[i] = t.Result
		byID[t.OfferID()] = t.Title
	}
	match.SortByScore(plain)
	for i, p := range plain {
		results[i] = TitledResult{Result: p, Title: byID[p.OfferID()]}
	}
}

// splitByDate partitions the IDs by whether their parallel ingestion date is
// known. Only dated IDs are eligible for the pruned lookup; routing a
// dateless ID through a date pre-filter would drop it.
func splitByDate(offerIDs, ingestionDates []string) (datedIDs, dates, datelessIDs []string) {
	allDates := make([]string, 0, len(offerIDs))
	for i, id := range offerIDs {
		var date string
		if i < len(ingestionDates) {
			date = ingestionDates[i]
		}
		if date == "" {
			datelessIDs = append(datelessIDs, id)
			continue
		}
		datedIDs = append(datedIDs, id)
		allDates = append(allDates, date)
	}
	return datedIDs, uniqueNonEmpty(allDates), datelessIDs
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
