// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies an external profile source.
type Platform string

// Known platforms.
const (
	PlatformGitHub   Platform = "github"
	PlatformX        Platform = "x"
	PlatformLinkedIn Platform = "linkedin"
	PlatformManual   Platform = "manual"
)

// ParsePlatform normalises a platform name. "twitter" is accepted as an alias of x.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "github":
		return PlatformGitHub, nil
	case "x", "twitter":
		return PlatformX, nil
	case "linkedin":
		return PlatformLinkedIn, nil
	case "manual":
		return PlatformManual, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Candidate is the unit of work: identity, facts and their score.
// Score and Tier must be recomputed whenever the facts change.
type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`

	XProfile      *SocialProfile `json:"x_profile,omitempty"`
	GitHubProfile *GitHubStats   `json:"github_profile,omitempty"`
	LinkedInURL   string         `json:"linkedin_url,omitempty"`

	CurrentTitle         string       `json:"current_title,omitempty"`
	CurrentCompany       string       `json:"current_company,omitempty"`
	Experiences          []Experience `json:"experiences"`
	TotalYearsExperience float64      `json:"total_years_experience"`

	Education    []Education           `json:"education"`
	Publications []ResearchPublication `json:"publications"`

	Score Score `json:"score"`
	Tier  Tier  `json:"priority_tier"`

	DiscoveredFrom Platform  `json:"discovered_from,omitempty"`
	DiscoveredAt   time.Time `json:"discovery_date"`
	UpdatedAt      time.Time `json:"last_updated"`
	Notes          string    `json:"notes,omitempty"`
}

// Validate checks the structural requirements of a candidate record.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCandidate)
	}
	if c.TotalYearsExperience < 0 {
		return fmt.Errorf("%w: total_years_experience must not be negative", ErrInvalidCandidate)
	}
	if g := c.GitHubProfile; g != nil {
		if g.Followers < 0 || g.PublicRepos < 0 || g.TotalStars < 0 || g.ContributionsLastYear < 0 {
			return fmt.Errorf("%w: github counts must not be negative", ErrInvalidCandidate)
		}
	}
	if x := c.XProfile; x != nil && x.Followers < 0 {
		return fmt.Errorf("%w: x followers must not be negative", ErrInvalidCandidate)
	}
	for i, p := range c.Publications {
		if p.Citations < 0 {
			return fmt.Errorf("%w: publication %d has negative citations", ErrInvalidCandidate, i)
		}
	}
	return nil
}

// Experience is one work history entry. Employer tier membership is derived
// from Company through the classification tables and is never stored.
type Experience struct {
	Company        string     `json:"company"`
	Title          string     `json:"title"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	DurationMonths int        `json:"duration_months"`
	Description    string     `json:"description,omitempty"`
}

// Months returns the role duration. With a start date the duration runs to
// the end date, or to now for an open-ended role. Without dates the recorded
// DurationMonths is used. The result is never negative.
func (e Experience) Months(now time.Time) int {
	if e.StartDate == nil {
		return max(e.DurationMonths, 0)
	}
	end := now
	if e.EndDate != nil {
		end = *e.EndDate
	}
	start := *e.StartDate
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	return max(months, 0)
}

// Education is one education entry. Top university membership is derived.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartYear   int    `json:"start_year,omitempty"`
	EndYear     int    `json:"end_year,omitempty"`
}

// Project is a notable repository.
type Project struct {
	Name        string `json:"name"`
	Stars       int    `json:"stars"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// GitHubStats are code-hosting facts.
type GitHubStats struct {
	Username              string    `json:"username"`
	URL                   string    `json:"url,omitempty"`
	Followers             int       `json:"followers"`
	PublicRepos           int       `json:"public_repos"`
	TotalStars            int       `json:"total_stars"`
	TotalForks            int       `json:"total_forks"`
	ContributionsLastYear int       `json:"contributions_last_year"`
	TopLanguages          []string  `json:"top_languages,omitempty"`
	NotableProjects       []Project `json:"notable_projects,omitempty"`
	AccountAgeDays        int       `json:"account_age_days,omitempty"`
}

// SocialProfile are social platform facts.
type SocialProfile struct {
	Platform        Platform `json:"platform"`
	Username        string   `json:"username"`
	URL             string   `json:"url"`
	Bio             string   `json:"bio,omitempty"`
	Followers       int      `json:"followers"`
	EngagementScore float64  `json:"engagement_score"`
}

// ResearchPublication is one publication.
type ResearchPublication struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
	Venue     string   `json:"venue,omitempty"`
	Year      int      `json:"year,omitempty"`
	Citations int      `json:"citations"`
	URL       string   `json:"url,omitempty"`
}

// Score is the breakdown produced by the scoring engine. Every sub-score is
// within [0,100]; Total is their weighted sum and is never set by hand.
type Score struct {
	Total           float64 `json:"total_score"`
	FAANG           float64 `json:"faang_score"`
	FrontierLabs    float64 `json:"frontier_labs_score"`
	TopTech         float64 `json:"top_tech_score"`
	GitHub          float64 `json:"github_score"`
	XEngagement     float64 `json:"x_engagement_score"`
	Research        float64 `json:"research_score"`
	Education       float64 `json:"education_score"`
	YearsExperience float64 `json:"experience_score"`
	OpenSource      float64 `json:"open_source_score"`
	Leadership      float64 `json:"leadership_score"`
}
