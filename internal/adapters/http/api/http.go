// Package api exposes the candidate store, scoring and enrichment over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/talentradar/internal/adapters/events"
	"github.com/okian/talentradar/internal/adapters/repository"
	"github.com/okian/talentradar/internal/domain/classify"
	"github.com/okian/talentradar/internal/domain/dedupe"
	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/scoring"
	"github.com/okian/talentradar/internal/domain/types"
	"github.com/okian/talentradar/pkg/logger"
)

const (
	defaultListLimit = 50
	defaultTopLimit  = 10
	defaultMaxLimit  = 100
	maxBodyBytes     = 1 << 20
)

// CandidateStore is the repository surface the handlers use.
type CandidateStore interface {
	Upsert(ctx context.Context, c model.Candidate) (bool, error)
	Get(ctx context.Context, id string) (model.Candidate, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f repository.Filter) (repository.Page, error)
	Rank(ctx context.Context, id string) (types.Entry, error)
	TopN(ctx context.Context, n int) ([]types.Entry, error)
	Stats(ctx context.Context) (types.Stats, error)
	Count(ctx context.Context) int
}

// Enricher resolves anchors into scored profiles.
type Enricher interface {
	Enrich(ctx context.Context, platform model.Platform, handle string) (model.EnrichedProfile, error)
	EnrichBatch(ctx context.Context, in []model.PartialCandidate) []model.Candidate
}

// JobQueue accepts background enrichment jobs.
type JobQueue interface {
	Enqueue(ctx context.Context, j model.EnrichmentJob) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	store     CandidateStore
	scorer    scoring.Scorer
	tables    *classify.Tables
	enricher  Enricher
	deduper   dedupe.Deduper
	jobs      JobQueue
	publisher events.Publisher
	maxLimit  int
	log       logger.Logger
	now       func() time.Time
}

// NewServer creates a Server. A nil enricher disables the enrichment routes.
func NewServer(store CandidateStore, scorer scoring.Scorer, enricher Enricher, opts ...Option) *Server {
	s := &Server{
		store:     store,
		scorer:    scorer,
		tables:    classify.Default(),
		enricher:  enricher,
		publisher: events.Nop{},
		maxLimit:  defaultMaxLimit,
		log:       logger.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scorer == nil {
		s.scorer = scoring.New(scoring.WithTables(s.tables))
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	route("GET /healthz", "healthz", s.handleHealth)
	mux.Handle("GET /metrics", metricsHandler())

	route("GET /api/candidates", "candidates_list", s.handleListCandidates)
	route("POST /api/candidates", "candidates_create", s.handleCreateCandidate)
	route("GET /api/candidates/top", "candidates_top", s.handleTopCandidates)
	route("GET /api/candidates/{id}", "candidates_get", s.handleGetCandidate)
	route("PUT /api/candidates/{id}", "candidates_update", s.handleUpdateCandidate)
	route("DELETE /api/candidates/{id}", "candidates_delete", s.handleDeleteCandidate)
	route("POST /api/candidates/{id}/rescore", "candidates_rescore", s.handleRescoreCandidate)
	route("GET /api/candidates/{id}/rank", "candidates_rank", s.handleRankCandidate)

	route("GET /api/search/candidates", "search", s.handleSearch)
	route("GET /api/search/by-tier", "search_by_tier", s.handleByTier)
	route("GET /api/search/stats", "search_stats", s.handleStats)

	route("POST /api/enrich", "enrich", s.handleEnrich)
	route("POST /api/enrich/batch", "enrich_batch", s.handleEnrichBatch)
	route("POST /api/discover", "discover", s.handleDiscover)
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  Kind   `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err and logs server errors with their stack.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	apiErr := newError(op, err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.log.Error(ctx, "request failed",
			logger.String("op", op),
			logger.Error(err),
			logger.String("stack", string(apiErr.Stack())))
	}
	writeJSON(w, apiErr.Status, errorResponse{Error: apiErr.Message, Kind: apiErr.Kind})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("empty body")
		}
		return badRequest("invalid json: %v", err)
	}
	return nil
}

// parseLimit reads ?limit, falling back to def. Values above the server
// cap are rejected.
func (s *Server) parseLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(def, s.maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badRequest("limit must be a positive integer")
	}
	if n > s.maxLimit {
		return 0, fmt.Errorf("%w: limit must be at most %d", ErrLimitExceeded, s.maxLimit)
	}
	return n, nil
}

// parseFilter reads the shared list and search query parameters.
func (s *Server) parseFilter(r *http.Request) (repository.Filter, error) {
	q := r.URL.Query()
	f := repository.Filter{
		Company: strings.TrimSpace(q.Get("company")),
		Query:   strings.TrimSpace(q.Get("q")),
	}

	limit, err := s.parseLimit(r, defaultListLimit)
	if err != nil {
		return f, err
	}
	f.Limit = limit

	if raw := q.Get("offset"); raw != "" {
		off, err := strconv.Atoi(raw)
		if err != nil || off < 0 {
			return f, badRequest("offset must be a non-negative integer")
		}
		f.Offset = off
	}
	if raw := q.Get("tier"); raw != "" {
		tier, err := model.ParseTier(raw)
		if err != nil {
			return f, err
		}
		f.Tier = &tier
	}
	if raw := q.Get("min_score"); raw != "" {
		ms, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, badRequest("min_score must be a number")
		}
		f.MinScore = ms
	}
	return f, nil
}

// save writes c and announces it.
func (s *Server) save(ctx context.Context, c model.Candidate, sources []model.Platform) (bool, error) {
	created, err := s.store.Upsert(ctx, c)
	if err != nil {
		return false, err
	}
	if err := s.publisher.PublishScored(ctx, events.NewCandidateScored(c, sources, s.now())); err != nil {
		s.log.Warn(ctx, "scored event not published", logger.String("id", c.ID), logger.Error(err))
	}
	return created, nil
}
