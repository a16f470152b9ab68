package repository

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/scoring"
	"github.com/okian/talentradar/internal/domain/types"
)

const topCompaniesLimit = 10

// checkWritable guards every write path of both stores.
func checkWritable(c model.Candidate) error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingID
	}
	if !scoring.Consistent(c) {
		return fmt.Errorf("%w: %s has total %.2f but tier %s", ErrStaleScore, c.ID, c.Score.Total, c.Tier)
	}
	return nil
}

// Matches reports whether c passes every set field of f.
func (f Filter) Matches(c model.Candidate) bool {
	if f.Tier != nil && c.Tier != *f.Tier {
		return false
	}
	if c.Score.Total < f.MinScore {
		return false
	}
	if f.Company != "" && !workedAt(c, f.Company) {
		return false
	}
	if f.Query != "" && !containsFold(f.Query, c.Name, c.Email, c.CurrentTitle, c.CurrentCompany) {
		return false
	}
	return true
}

func workedAt(c model.Candidate, company string) bool {
	if containsFold(company, c.CurrentCompany) {
		return true
	}
	for _, e := range c.Experiences {
		if containsFold(company, e.Company) {
			return true
		}
	}
	return false
}

func containsFold(needle string, fields ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func validLimit(f Filter) error {
	if f.Limit < 1 || f.Offset < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// assignRanks gives tied scores the same rank; the next distinct score
// takes the next consecutive rank.
func assignRanks(entries []types.Entry, first int) {
	rank := first
	for i := range entries {
		if i > 0 && entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}

func entryOf(c model.Candidate) types.Entry {
	return types.Entry{CandidateID: c.ID, Name: c.Name, Score: c.Score.Total, Tier: c.Tier}
}

// statsAccumulator builds types.Stats from a stream of candidates.
type statsAccumulator struct {
	total     int
	sum       float64
	tiers     map[string]int
	companies map[string]int
}

func newStatsAccumulator() *statsAccumulator {
	tiers := make(map[string]int, len(model.Tiers))
	for _, t := range model.Tiers {
		tiers[t.String()] = 0
	}
	return &statsAccumulator{tiers: tiers, companies: make(map[string]int)}
}

func (a *statsAccumulator) add(total float64, tier model.Tier, company string) {
	a.total++
	a.sum += total
	a.tiers[tier.String()]++
	if company = strings.TrimSpace(company); company != "" {
		a.companies[company]++
	}
}

func (a *statsAccumulator) stats() types.Stats {
	s := types.Stats{
		TotalCandidates:  a.total,
		TierDistribution: a.tiers,
		TopCompanies:     make([]types.CompanyCount, 0, len(a.companies)),
	}
	if a.total > 0 {
		s.AverageScore = math.Round(a.sum/float64(a.total)*100) / 100
	}
	for name, n := range a.companies {
		s.TopCompanies = append(s.TopCompanies, types.CompanyCount{Company: name, Count: n})
	}
	sort.Slice(s.TopCompanies, func(i, j int) bool {
		if s.TopCompanies[i].Count != s.TopCompanies[j].Count {
			return s.TopCompanies[i].Count > s.TopCompanies[j].Count
		}
		return s.TopCompanies[i].Company < s.TopCompanies[j].Company
	})
	if len(s.TopCompanies) > topCompaniesLimit {
		s.TopCompanies = s.TopCompanies[:topCompaniesLimit]
	}
	return s
}
