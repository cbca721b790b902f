package matching

import (
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

// aggregate accumulates what every contributing profile learned about one
// offer: the best score seen, the first non-empty partition date, and the
// contributing profile names in fan-out slot order.
type aggregate struct {
	best  match.Result
	names []string
}

// mergeProfiles folds the per-profile rankings into one global top-k. The
// result is independent of worker completion order: scores merge by max, and
// the final ordering is score descending with offer ID as the tie-break.
func mergeProfiles(
	profiles []profile.Profile, perProfile [][]match.Result, topK int,
) []UserMatch {
	byOffer := make(map[string]*aggregate)

	for i, results := range perProfile {
		name := profiles[i].Name()
		for _, r := range results {
			agg, ok := byOffer[r.OfferID()]
			if !ok {
				byOffer[r.OfferID()] = &aggregate{best: r, names: []string{name}}
				continue
			}
			if r.Score() > agg.best.Score() {
				agg.best = match.NewResult(r.OfferID(), r.Score(), pickDate(agg.best, r))
			} else if agg.best.IngestionDate() == "" && r.IngestionDate() != "" {
				agg.best = match.NewResult(agg.best.OfferID(), agg.best.Score(), r.IngestionDate())
			}
			agg.names = appendName(agg.names, name)
		}
	}

	ranked := make([]match.Result, 0, len(byOffer))
	for _, agg := range byOffer {
		ranked = append(ranked, agg.best)
	}
	match.SortByScore(ranked)
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	merged := make([]UserMatch, len(ranked))
	for i, r := range ranked {
		merged[i] = UserMatch{
			OfferID:       r.OfferID(),
			Score:         r.Score(),
			IngestionDate: r.IngestionDate(),
			ProfileNames:  byOffer[r.OfferID()].names,
		}
	}
	return merged
}

// pickDate keeps the first non-empty ingestion date across contributions.
func pickDate(prev, next match.Result) string {
	if prev.IngestionDate() != "" {
		return prev.IngestionDate()
	}
	return next.IngestionDate()
}

// appendName appends name unless the profile already contributed this offer.
func appendName(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
