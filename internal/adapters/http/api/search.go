package api

import (
	"net/http"

	"github.com/okian/talentradar/internal/adapters/repository"
	"github.com/okian/talentradar/internal/domain/model"
)

type searchQuery struct {
	Q        string   `json:"q,omitempty"`
	Tier     string   `json:"tier,omitempty"`
	MinScore *float64 `json:"min_score,omitempty"`
	Company  string   `json:"company,omitempty"`
}

type searchResponse struct {
	Count   int             `json:"count"`
	Total   int             `json:"total"`
	Query   searchQuery     `json:"query"`
	Results []candidateView `json:"results"`
}

type tierGroup struct {
	Count      int             `json:"count"`
	Candidates []candidateView `json:"candidates"`
}

type byTierResponse struct {
	Tiers map[string]tierGroup `json:"tiers"`
}

// handleSearch handles GET /api/search/candidates.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search"
	f, err := s.parseFilter(r)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	page, err := s.store.List(r.Context(), f)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}

	q := searchQuery{Q: f.Query, Company: f.Company}
	if f.Tier != nil {
		q.Tier = f.Tier.String()
	}
	if r.URL.Query().Has("min_score") {
		ms := f.MinScore
		q.MinScore = &ms
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Count:   len(page.Candidates),
		Total:   page.Total,
		Query:   q,
		Results: s.views(page.Candidates),
	})
}

// handleByTier handles GET /api/search/by-tier. Each group holds at most
// the server's list cap; counts cover every stored candidate.
func (s *Server) handleByTier(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_by_tier"
	resp := byTierResponse{Tiers: make(map[string]tierGroup, len(model.Tiers))}
	for _, tier := range model.Tiers {
		tier := tier
		page, err := s.store.List(r.Context(), repository.Filter{Tier: &tier, Limit: s.maxLimit})
		if err != nil {
			s.writeError(r.Context(), w, op, err)
			return
		}
		resp.Tiers[tier.String()] = tierGroup{Count: page.Total, Candidates: s.views(page.Candidates)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStats handles GET /api/search/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_stats"
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
