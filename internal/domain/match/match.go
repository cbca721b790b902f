// Package match holds the ranked-result value types produced by the
// offer matching engine.
package match

import (
	"fmt"
	"sort"
)

// Result is a single ranked offer: corpus ID, similarity score in [0,1],
// and the ingestion date of the offer's storage partition ("2006-01-02",
// empty when unknown). The date exists only to let detail lookups prune
// partitions; it carries no ranking semantics.
type Result struct {
	offerID       string
	score         float64
	ingestionDate string
}

// NewResult creates a match result.
func NewResult(offerID string, score float64, ingestionDate string) Result {
	return Result{offerID: offerID, score: score, ingestionDate: ingestionDate}
}

// OfferID returns the corpus offer identifier.
func (r Result) OfferID() string { return r.offerID }

// Score returns the similarity score in [0,1].
func (r Result) Score() float64 { return r.score }

// IngestionDate returns the offer's partition date, or "" when unknown.
func (r Result) IngestionDate() string { return r.ingestionDate }

// OfferDetails is the minimal display projection of an offer row, resolved
// lazily for the final top-k only.
type OfferDetails struct {
	ID          string
	Title       string
	Company     string
	Description string
}

// PlaceholderTitle marks offers that matched but could no longer be resolved
// in the corpus (deleted or drifted rows).
const PlaceholderTitle = "Offer not found"

// CacheKey identifies one cached per-profile match list. Fingerprint is a
// hash over the exact text fed to the embedder, so any content edit yields a
// new key and transparently invalidates prior entries.
type CacheKey struct {
	ProfileID   string
	Fingerprint string
	TopK        int
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.ProfileID, k.Fingerprint, k.TopK)
}

// SortByScore orders results by score descending, breaking ties by offer ID
// ascending. The tie-break is deliberate: backend iteration order is not a
// contract, so ranked output must not depend on it.
func SortByScore(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].offerID < results[j].offerID
	})
}
