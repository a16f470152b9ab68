// Package classify maps free-text employer and institution names onto the
// static reference tiers used by scoring.
//
// Matching is a case-insensitive substring test: a company matches when any
// reference name occurs anywhere inside it. This is loose on purpose and will
// over-match ("Googleplex Inc" matches "Google", and the top tech entry "X"
// matches any name containing an x). Callers rely on the permissive behaviour.
package classify

import (
	"strings"

	"github.com/okian/talentradar/internal/domain/model"
)

// Tables is an immutable set of reference lists.
type Tables struct {
	faang        []string
	frontier     []string
	topTech      []string
	universities []string
}

// Lists is the raw input for Tables.
type Lists struct {
	FAANG           []string
	FrontierLabs    []string
	TopTech         []string
	TopUniversities []string
}

// New builds Tables from lists. Names are lowercased once and blank entries
// are dropped; the input slices are not retained.
func New(l Lists) *Tables {
	return &Tables{
		faang:        normalize(l.FAANG),
		frontier:     normalize(l.FrontierLabs),
		topTech:      normalize(l.TopTech),
		universities: normalize(l.TopUniversities),
	}
}

// Default returns the built-in reference lists.
func Default() *Tables {
	return New(DefaultLists())
}

// DefaultLists returns a fresh copy of the built-in reference lists.
func DefaultLists() Lists {
	return Lists{
		FAANG: []string{"Facebook", "Meta", "Apple", "Amazon", "Netflix", "Google", "Microsoft"},
		FrontierLabs: []string{
			"OpenAI", "Anthropic", "DeepMind", "Google DeepMind", "Cohere", "Stability AI",
			"Midjourney", "Character.AI", "Inflection AI", "xAI", "Adept",
		},
		TopTech: []string{
			"Tesla", "SpaceX", "Stripe", "Databricks", "Airbnb", "Uber", "Lyft", "Snap",
			"Twitter", "X", "Pinterest", "Reddit", "Dropbox", "Square", "Block",
			"Salesforce", "Oracle", "Adobe", "NVIDIA", "Intel", "AMD",
		},
		TopUniversities: []string{
			"MIT", "Stanford", "Harvard", "Carnegie Mellon", "UC Berkeley", "Caltech",
			"Princeton", "Yale", "Columbia", "Cornell", "University of Washington",
			"Georgia Tech", "University of Michigan", "UT Austin", "UIUC",
			"University of Illinois Urbana-Champaign", "Cambridge", "Oxford",
			"ETH Zurich", "Tsinghua", "Peking University", "IIT",
		},
	}
}

func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func contains(refs []string, name string) bool {
	if name == "" {
		return false
	}
	name = strings.ToLower(name)
	for _, ref := range refs {
		if strings.Contains(name, ref) {
			return true
		}
	}
	return false
}

// IsFAANG reports flagship tech membership.
func (t *Tables) IsFAANG(company string) bool { return contains(t.faang, company) }

// IsFrontierLab reports frontier AI lab membership.
func (t *Tables) IsFrontierLab(company string) bool { return contains(t.frontier, company) }

// IsTopTech reports raw top tech list membership. Scoring additionally
// excludes companies that are also FAANG or frontier labs; see IsOtherTopTech.
func (t *Tables) IsTopTech(company string) bool { return contains(t.topTech, company) }

// IsOtherTopTech reports top tech membership outside the two higher tiers.
func (t *Tables) IsOtherTopTech(company string) bool {
	return t.IsTopTech(company) && !t.IsFAANG(company) && !t.IsFrontierLab(company)
}

// IsTopUniversity reports top university membership.
func (t *Tables) IsTopUniversity(institution string) bool {
	return contains(t.universities, institution)
}

// ExperienceFlags are the derived employer tier flags for one experience.
type ExperienceFlags struct {
	IsFAANG       bool `json:"is_faang"`
	IsFrontierLab bool `json:"is_frontier_lab"`
	IsTopTech     bool `json:"is_top_tech"`
}

// Experience computes the employer flags for e on read.
func (t *Tables) Experience(e model.Experience) ExperienceFlags {
	return ExperienceFlags{
		IsFAANG:       t.IsFAANG(e.Company),
		IsFrontierLab: t.IsFrontierLab(e.Company),
		IsTopTech:     t.IsTopTech(e.Company),
	}
}
