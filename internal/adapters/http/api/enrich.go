package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/talentradar/internal/adapters/repository"
	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/pkg/logger"
	"github.com/okian/talentradar/pkg/metrics"
)

type enrichRequest struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
}

type enrichResponse struct {
	Candidate candidateView        `json:"candidate"`
	Sources   []model.Platform     `json:"sources"`
	Insights  model.CareerInsights `json:"insights"`
}

type batchRequest struct {
	Candidates []model.PartialCandidate `json:"candidates"`
}

type discoverRequest struct {
	Platform string   `json:"platform"`
	Handles  []string `json:"handles"`
}

type discoverResponse struct {
	Accepted  int      `json:"accepted"`
	Duplicate int      `json:"duplicate"`
	Rejected  int      `json:"rejected"`
	JobIDs    []string `json:"job_ids,omitempty"`
}

// handleEnrich handles POST /api/enrich. The profile is stored under an id
// derived from the anchor.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	const op = "api.enrich"
	if s.enricher == nil {
		s.writeError(r.Context(), w, op, fmt.Errorf("%w: enrichment is not configured", ErrUnavailable))
		return
	}
	var req enrichRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	platform, err := model.ParsePlatform(req.Platform)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}

	profile, err := s.enricher.Enrich(r.Context(), platform, req.Handle)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	if profile.Empty() {
		s.writeError(r.Context(), w, op,
			fmt.Errorf("%w: no profile for %s", repository.ErrNotFound, model.AnchorKey(platform, req.Handle)))
		return
	}

	c := profile.Candidate
	if c.ID == "" {
		c.ID = model.CandidateID(platform, req.Handle)
	}
	if _, err := s.save(r.Context(), c, profile.Sources); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, enrichResponse{
		Candidate: s.view(c),
		Sources:   profile.Sources,
		Insights:  profile.Insights,
	})
}

// handleEnrichBatch handles POST /api/enrich/batch. Output order matches
// input order; records without a usable name are returned but not stored.
func (s *Server) handleEnrichBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.enrich_batch"
	if s.enricher == nil {
		s.writeError(r.Context(), w, op, fmt.Errorf("%w: enrichment is not configured", ErrUnavailable))
		return
	}
	var req batchRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	if len(req.Candidates) == 0 {
		s.writeError(r.Context(), w, op, badRequest("candidates must not be empty"))
		return
	}
	if len(req.Candidates) > s.maxLimit {
		s.writeError(r.Context(), w, op, fmt.Errorf("%w: at most %d candidates per batch", ErrLimitExceeded, s.maxLimit))
		return
	}

	out := s.enricher.EnrichBatch(r.Context(), req.Candidates)
	for i := range out {
		if out[i].ID == "" {
			if platform, handle, ok := req.Candidates[i].Anchor(); ok {
				out[i].ID = model.CandidateID(platform, handle)
			} else {
				out[i].ID = uuid.NewString()
			}
		}
		s.scorer.Apply(&out[i])
		if err := out[i].Validate(); err != nil {
			s.log.Debug(r.Context(), "batch record not stored", logger.Int("index", i), logger.Error(err))
			continue
		}
		if _, err := s.save(r.Context(), out[i], nil); err != nil {
			s.log.Warn(r.Context(), "batch record not stored", logger.String("id", out[i].ID), logger.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(out), Total: len(out), Candidates: s.views(out)})
}

// handleDiscover handles POST /api/discover. Handles already submitted
// recently count as duplicates; a full queue rejects the remainder.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	const op = "api.discover"
	if s.jobs == nil || s.deduper == nil {
		s.writeError(r.Context(), w, op, fmt.Errorf("%w: discovery is not configured", ErrUnavailable))
		return
	}
	var req discoverRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	platform, err := model.ParsePlatform(req.Platform)
	if err != nil {
		s.writeError(r.Context(), w, op, err)
		return
	}
	if platform != model.PlatformGitHub && platform != model.PlatformX {
		s.writeError(r.Context(), w, op, badRequest("platform must be github or x"))
		return
	}
	if len(req.Handles) == 0 {
		s.writeError(r.Context(), w, op, badRequest("handles must not be empty"))
		return
	}
	if len(req.Handles) > s.maxLimit {
		s.writeError(r.Context(), w, op, fmt.Errorf("%w: at most %d handles per request", ErrLimitExceeded, s.maxLimit))
		return
	}

	var resp discoverResponse
	var lastErr error
	for _, h := range req.Handles {
		handle := strings.TrimPrefix(strings.TrimSpace(h), "@")
		if handle == "" {
			resp.Rejected++
			continue
		}
		key := model.AnchorKey(platform, handle)
		if s.deduper.SeenAndRecord(r.Context(), key) {
			resp.Duplicate++
			metrics.RecordDuplicateAnchor()
			continue
		}
		job := model.EnrichmentJob{
			JobID:       uuid.NewString(),
			Platform:    platform,
			Handle:      handle,
			SubmittedAt: s.now().UTC(),
		}
		if err := s.jobs.Enqueue(r.Context(), job); err != nil {
			s.deduper.Unrecord(r.Context(), key)
			resp.Rejected++
			lastErr = err
			continue
		}
		resp.Accepted++
		resp.JobIDs = append(resp.JobIDs, job.JobID)
	}

	if resp.Accepted == 0 && lastErr != nil {
		s.writeError(r.Context(), w, op, lastErr)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}
