package jobmatch

import (
	"github.com/kailas-cloud/jobmatch/internal/domain/match"
	"github.com/kailas-cloud/jobmatch/internal/domain/profile"
	matchinguc "github.com/kailas-cloud/jobmatch/internal/usecase/matching"
)

// Profile is one candidate profile of a user. A user may hold several
// logically independent profiles, each matched against the corpus
// separately.
type Profile struct {
	ID          string
	Name        string
	Title       string
	Experiences []string
	HardSkills  []string
	SoftSkills  []string
}

// Match is one ranked offer from a raw-embedding query.
type Match struct {
	OfferID       string
	Score         float64 // in [0,1], higher is better
	IngestionDate string  // "2006-01-02", empty when unpartitioned
}

// UserMatch is one merged result row for a user: the best score any of
// the user's profiles achieved for the offer, the names of every profile
// that surfaced it, and the resolved display details.
type UserMatch struct {
	OfferID       string
	Score         float64
	Title         string
	Company       string
	Description   string
	ProfileNames  []string
	IngestionDate string
}

func toProfiles(in []Profile) []profile.Profile {
	out := make([]profile.Profile, len(in))
	for i, p := range in {
		out[i] = profile.New(p.ID, p.Name, p.Title, p.Experiences, p.HardSkills, p.SoftSkills)
	}
	return out
}

func toMatches(in []match.Result) []Match {
	out := make([]Match, len(in))
	for i, r := range in {
		out[i] = Match{
			OfferID:       r.OfferID(),
			Score:         r.Score(),
			IngestionDate: r.IngestionDate(),
		}
	}
	return out
}

func toUserMatches(in []matchinguc.UserMatch) []UserMatch {
	out := make([]UserMatch, len(in))
	for i, m := range in {
		out[i] = UserMatch{
			OfferID:       m.OfferID,
			Score:         m.Score,
			Title:         m.Details.Title,
			Company:       m.Details.Company,
			Description:   m.Details.Description,
			ProfileNames:  m.ProfileNames,
			IngestionDate: m.IngestionDate,
		}
	}
	return out
}
