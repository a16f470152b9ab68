package enrichment

import (
	"regexp"
	"strings"

	"github.com/okian/talentradar/internal/domain/model"
)

// Rule extracts one platform handle from free text. Rules are evaluated in
// order and the first accepted match per platform wins.
type Rule struct {
	Name      string
	Platform  model.Platform
	Pattern   *regexp.Regexp // first capture group is the handle
	Deny      []string       // reserved path segments, compared case-insensitively
	Normalize func(handle string) string
}

func (r Rule) denied(handle string) bool {
	for _, d := range r.Deny {
		if strings.EqualFold(d, handle) {
			return true
		}
	}
	return false
}

// DefaultRules returns the stock cross-reference rule set.
func DefaultRules() []Rule {
	githubDeny := []string{"repos", "issues", "pulls", "orgs", "explore"}
	return []Rule{
		{
			Name:     "github-url",
			Platform: model.PlatformGitHub,
			Pattern:  regexp.MustCompile(`(?i)github\.com/([a-zA-Z0-9-]+)`),
			Deny:     githubDeny,
		},
		{
			Name:     "github-mention",
			Platform: model.PlatformGitHub,
			Pattern:  regexp.MustCompile(`(?i)@([a-zA-Z0-9-]+)\s+(?:on|at)\s+GitHub`),
			Deny:     githubDeny,
		},
		{
			Name:     "github-label",
			Platform: model.PlatformGitHub,
			Pattern:  regexp.MustCompile(`(?i)GitHub:\s+([a-zA-Z0-9-]+)`),
			Deny:     githubDeny,
		},
		{
			Name:     "x-url",
			Platform: model.PlatformX,
			Pattern:  regexp.MustCompile(`(?i)\b(?:twitter|x)\.com/([A-Za-z0-9_]{1,15})`),
			Deny:     []string{"home", "i", "intent", "search", "share", "hashtag"},
		},
		{
			Name:      "linkedin-profile",
			Platform:  model.PlatformLinkedIn,
			Pattern:   regexp.MustCompile(`(?i)linkedin\.com/in/([a-zA-Z0-9-]+)`),
			Normalize: func(h string) string { return "https://linkedin.com/in/" + h },
		},
	}
}

// Extract applies rules to text. Each rule looks at its first match only;
// a denied match moves on to the next rule for the same platform.
func Extract(rules []Rule, text string) map[model.Platform]string {
	found := make(map[model.Platform]string)
	if strings.TrimSpace(text) == "" {
		return found
	}
	for _, r := range rules {
		if _, ok := found[r.Platform]; ok || r.Pattern == nil {
			continue
		}
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) < 2 || m[1] == "" || r.denied(m[1]) {
			continue
		}
		handle := m[1]
		if r.Normalize != nil {
			handle = r.Normalize(handle)
		}
		found[r.Platform] = handle
	}
	return found
}
