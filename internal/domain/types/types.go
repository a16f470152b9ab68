// Package types contains common types used across the application
package types

import "github.com/okian/talentradar/internal/domain/model"

// Entry represents one row of the ranked candidate list.
type Entry struct {
	Rank        int        `json:"rank"`
	CandidateID string     `json:"candidate_id"`
	Name        string     `json:"name"`
	Score       float64    `json:"score"`
	Tier        model.Tier `json:"priority_tier"`
}

// CompanyCount is one row of the top companies list.
type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// Stats summarises the stored candidates.
type Stats struct {
	TotalCandidates  int            `json:"total_candidates"`
	TierDistribution map[string]int `json:"tier_distribution"`
	AverageScore     float64        `json:"average_score"`
	TopCompanies     []CompanyCount `json:"top_companies"`
}
