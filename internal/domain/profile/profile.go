// Package profile holds the candidate profile value type and the query-text
// assembly used to embed a profile against the offer corpus.
package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Profile is one candidate profile of a user. A user may hold several
// logically independent profiles (e.g. "Backend Engineer" and "SRE"),
// each matched against the corpus separately.
type Profile struct {
	id          string
	name        string
	title       string
	experiences []string
	hardSkills  []string
	softSkills  []string
}

// New creates a candidate profile.
func New(id, name, title string, experiences, hardSkills, softSkills []string) Profile {
	return Profile{
		id:          id,
		name:        name,
		title:       title,
		experiences: experiences,
		hardSkills:  hardSkills,
		softSkills:  softSkills,
	}
}

// ID returns the profile identifier.
func (p Profile) ID() string { return p.id }

// Name returns the human-readable profile name reported in merged results.
func (p Profile) Name() string { return p.name }

// Title returns the profile's role title.
func (p Profile) Title() string { return p.title }

// QueryTexts assembles the two texts fed to the embedder: the title text and
// the CV text. The CV text concatenates the selected experience descriptions
// and the skill lists, each section appended only when non-empty. When no
// content section exists at all, the CV text falls back to the title text so
// the profile still produces a query vector.
func (p Profile) QueryTexts() (titleText, cvText string) {
	titleText = strings.TrimSpace(p.title)

	var sections []string
	if len(p.experiences) > 0 {
		sections = append(sections, strings.Join(p.experiences, "\n"))
	}
	if len(p.hardSkills) > 0 {
		sections = append(sections, "Hard skills: "+strings.Join(p.hardSkills, ", "))
	}
	if len(p.softSkills) > 0 {
		sections = append(sections, "Soft skills: "+strings.Join(p.softSkills, ", "))
	}

	if len(sections) == 0 {
		return titleText, titleText
	}
	return titleText, strings.Join(sections, "\n")
}

// Fingerprint returns a deterministic hash over the exact text fed to the
// embedder. Any edit to the profile's selected content changes the
// fingerprint, which transparently invalidates cached match results.
func (p Profile) Fingerprint() string {
	titleText, cvText := p.QueryTexts()
	h := sha256.New()
	h.Write([]byte(titleText))
	h.Write([]byte{0}) // separator: ("ab","c") must differ from ("a","bc")
	h.Write([]byte(cvText))
	return hex.EncodeToString(h.Sum(nil))
}
