package model

import (
	"strings"

	"github.com/google/uuid"
)

// EnrichedProfile is the merged result of one enrichment run.
type EnrichedProfile struct {
	Candidate Candidate      `json:"candidate"`
	Sources   []Platform     `json:"sources"`
	Insights  CareerInsights `json:"insights"`
}

// Empty reports whether the anchor could not be resolved.
func (p EnrichedProfile) Empty() bool {
	return len(p.Sources) == 0
}

// HasSource reports whether src contributed to the profile.
func (p EnrichedProfile) HasSource(src Platform) bool {
	for _, s := range p.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// AddSource appends src once, keeping first-seen order.
func (p *EnrichedProfile) AddSource(src Platform) {
	if !p.HasSource(src) {
		p.Sources = append(p.Sources, src)
	}
}

// PartialCandidate is a batch enrichment input: a base record plus at least
// one anchor handle. The GitHub anchor wins when both are set.
type PartialCandidate struct {
	GitHubUsername string    `json:"github_username,omitempty"`
	XUsername      string    `json:"x_username,omitempty"`
	Base           Candidate `json:"candidate"`
}

// Anchor returns the preferred anchor, or ok=false when none is set.
func (p PartialCandidate) Anchor() (Platform, string, bool) {
	switch {
	case p.GitHubUsername != "":
		return PlatformGitHub, p.GitHubUsername, true
	case p.XUsername != "":
		return PlatformX, p.XUsername, true
	}
	return "", "", false
}

// AnchorKey builds a case-insensitive key for a platform handle.
func AnchorKey(platform Platform, handle string) string {
	return string(platform) + ":" + strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// CandidateID derives a stable record id from an anchor, so enriching the
// same handle twice updates one record.
func CandidateID(platform Platform, handle string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(AnchorKey(platform, handle))).String()
}
