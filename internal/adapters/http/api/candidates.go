package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/types"
)

type listResponse struct {
	Count      int             `json:"count"`
	Total      int             `json:"total"`
	Candidates []candidateView `json:"candidates"`
}

type entriesResponse struct {
	Count   int           `json:"count"`
	Entries []types.Entry `json:"entries"`
}

// handleListCandidates handles GET /api/candidates.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_candidates"
	f, err := s.parseFilter(r)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	f.Query = ""
	page, err := s.store.List(r.Context(), f)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Count:      len(page.Candidates),
		Total:      page.Total,
		Candidates: s.views(page.Candidates),
	})
}

// handleGetCandidate handles GET /api/candidates/{id}.
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_candidate"
	c, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(c))
}

// handleCreateCandidate handles POST /api/candidates. Client supplied
// scores are ignored.
func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_candidate"
	var c model.Candidate
	if err := decodeBody(r, &c); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	if err := c.Validate(); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}

	now := s.now().UTC()
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.DiscoveredFrom == "" {
		c.DiscoveredFrom = model.PlatformManual
	}
	if c.DiscoveredAt.IsZero() {
		c.DiscoveredAt = now
	}
	c.UpdatedAt = now
	s.scorer.Apply(&c)

	created, err := s.save(r.Context(), c, nil)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, s.view(c))
}

// handleUpdateCandidate handles PUT /api/candidates/{id}. Fields present
// in the body replace the stored ones; the record is then rescored.
func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_candidate"
	id := r.PathValue("id")
	c, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(r.Context(), w, op, badRequest("read body: %v", err))
		return
	}
	c, err = patch(c, body)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	c.ID = id
	if err := c.Validate(); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	c.UpdatedAt = s.now().UTC()
	s.scorer.Apply(&c)

	if _, err := s.save(r.Context(), c, nil); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(c))
}

// handleDeleteCandidate handles DELETE /api/candidates/{id}.
func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_candidate"
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRescoreCandidate handles POST /api/candidates/{id}/rescore.
func (s *Server) handleRescoreCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.rescore_candidate"
	c, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	s.scorer.Apply(&c)
	c.UpdatedAt = s.now().UTC()
	if _, err := s.save(r.Context(), c, nil); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(c))
}

// handleTopCandidates handles GET /api/candidates/top?limit=N.
func (s *Server) handleTopCandidates(w http.ResponseWriter, r *http.Request) {
	const op = "api.top_candidates"
	n, err := s.parseLimit(r, defaultTopLimit)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	entries, err := s.store.TopN(r.Context(), n)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Count: len(entries), Entries: entries})
}

// handleRankCandidate handles GET /api/candidates/{id}/rank.
func (s *Server) handleRankCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.rank_candidate"
	entry, err := s.store.Rank(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// patch applies a partial JSON document to a deep copy of c, so the stored
// record never shares memory with the edited one.
func patch(c model.Candidate, body []byte) (model.Candidate, error) {
	base, err := json.Marshal(c)
	if err != nil {
		return c, err
	}
	var out model.Candidate
	if err := json.Unmarshal(base, &out); err != nil {
		return c, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return c, badRequest("invalid json: %v", err)
	}
	return out, nil
}
