// Package enrichment builds a merged candidate profile from one identity
// anchor by cross-referencing the other platforms it mentions.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/scoring"
	"github.com/okian/talentradar/pkg/logger"
	"github.com/okian/talentradar/pkg/metrics"
)

const (
	defaultFetchTimeout = 10 * time.Second
	defaultConcurrency  = 4

	xProfileURL = "https://x.com/"
)

// Collaborator names used in logs and metrics.
const (
	collabCodeHostProfile = "github_profile"
	collabCodeHostStats   = "github_stats"
	collabSocial          = "x_profile"
	collabInsights        = "insights"
)

// CodeHostProfile is the base profile record of a code-hosting account.
type CodeHostProfile struct {
	Login           string
	Name            string
	Email           string
	Bio             string
	Blog            string
	Company         string
	TwitterUsername string
	URL             string
	Followers       int
	PublicRepos     int
	CreatedAt       time.Time
}

// SocialFacts is the base profile record of a social account.
type SocialFacts struct {
	Name       string
	Username   string
	Bio        string
	URL        string
	Followers  int
	Engagement float64
}

// CodeHost fetches code-hosting facts. A nil result with a nil error means
// the account does not exist.
type CodeHost interface {
	Profile(ctx context.Context, handle string) (*CodeHostProfile, error)
	Stats(ctx context.Context, handle string) (*model.GitHubStats, error)
}

// Social fetches social platform facts. A nil result with a nil error means
// the account does not exist.
type Social interface {
	Profile(ctx context.Context, handle string) (*SocialFacts, error)
}

// InsightSuggester turns free text into a raw, untrusted JSON suggestion.
type InsightSuggester interface {
	SuggestCareerInsights(ctx context.Context, text string) (json.RawMessage, error)
}

// Engine enriches anchors. It is safe for concurrent use.
type Engine struct {
	codeHost     CodeHost
	social       Social
	insights     InsightSuggester
	scorer       scoring.Scorer
	rules        []Rule
	fetchTimeout time.Duration
	concurrency  int
	log          logger.Logger
	now          func() time.Time
}

// New creates an Engine. A nil collaborator disables its platform.
func New(codeHost CodeHost, social Social, scorer scoring.Scorer, opts ...Option) *Engine {
	e := &Engine{
		codeHost:     codeHost,
		social:       social,
		scorer:       scorer,
		rules:        DefaultRules(),
		fetchTimeout: defaultFetchTimeout,
		concurrency:  defaultConcurrency,
		log:          logger.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scorer == nil {
		e.scorer = scoring.New()
	}
	return e
}

// Enrich builds a profile from one anchor. Only a structurally absent
// anchor is an error; an anchor that cannot be fetched yields an empty
// profile and partial sources simply stay absent.
func (e *Engine) Enrich(ctx context.Context, platform model.Platform, handle string) (model.EnrichedProfile, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return model.EnrichedProfile{}, ErrEmptyAnchor
	}

	var p model.EnrichedProfile
	switch {
	case platform == model.PlatformGitHub && e.codeHost != nil:
		p = e.fromCodeHost(ctx, handle)
	case platform == model.PlatformX && e.social != nil:
		p = e.fromSocial(ctx, handle)
	default:
		return model.EnrichedProfile{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}

	if p.Empty() {
		metrics.RecordEnrichment(string(platform), metrics.OutcomeNotFound)
		e.log.Info(ctx, "anchor not found",
			logger.String("platform", string(platform)),
			logger.String("handle", handle))
		return model.EnrichedProfile{}, nil
	}

	start := time.Now()
	e.scorer.Apply(&p.Candidate)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)

	now := e.now()
	p.Candidate.DiscoveredFrom = platform
	p.Candidate.DiscoveredAt = now
	p.Candidate.UpdatedAt = now
	metrics.RecordEnrichment(string(platform), metrics.OutcomeSuccess)
	return p, nil
}

func (e *Engine) fromCodeHost(ctx context.Context, handle string) model.EnrichedProfile {
	prof, err := within(ctx, e.fetchTimeout, func(ctx context.Context) (*CodeHostProfile, error) {
		return e.codeHost.Profile(ctx, handle)
	})
	if !e.observe(ctx, collabCodeHostProfile, handle, prof != nil, err) {
		return model.EnrichedProfile{}
	}

	var p model.EnrichedProfile
	c := &p.Candidate
	c.Name = firstNonEmpty(prof.Name, handle)
	c.Email = prof.Email
	c.GitHubProfile = e.codeHostStats(ctx, handle, prof)
	p.AddSource(model.PlatformGitHub)

	refs := Extract(e.rules, joinText(prof.Bio, prof.Blog))
	if xHandle := firstNonEmpty(strings.TrimPrefix(prof.TwitterUsername, "@"), refs[model.PlatformX]); xHandle != "" {
		e.attachSocial(ctx, &p, xHandle)
	}
	e.attachLinkedIn(&p, refs)
	e.mergeInsights(ctx, &p, prof.Bio)
	return p
}

func (e *Engine) fromSocial(ctx context.Context, handle string) model.EnrichedProfile {
	facts, err := within(ctx, e.fetchTimeout, func(ctx context.Context) (*SocialFacts, error) {
		return e.social.Profile(ctx, handle)
	})
	if !e.observe(ctx, collabSocial, handle, facts != nil, err) {
		return model.EnrichedProfile{}
	}

	var p model.EnrichedProfile
	c := &p.Candidate
	c.Name = firstNonEmpty(facts.Name, handle)
	c.XProfile = socialProfile(facts, handle)
	p.AddSource(model.PlatformX)

	refs := Extract(e.rules, joinText(facts.Bio, facts.URL))
	if gh := refs[model.PlatformGitHub]; gh != "" && e.codeHost != nil {
		e.attachCodeHost(ctx, &p, gh)
	}
	e.attachLinkedIn(&p, refs)
	e.mergeInsights(ctx, &p, facts.Bio)
	return p
}

// codeHostStats fetches stats for the anchor, falling back to the profile
// counters when the stats call fails.
func (e *Engine) codeHostStats(ctx context.Context, handle string, prof *CodeHostProfile) *model.GitHubStats {
	stats, err := within(ctx, e.fetchTimeout, func(ctx context.Context) (*model.GitHubStats, error) {
		return e.codeHost.Stats(ctx, handle)
	})
	if e.observe(ctx, collabCodeHostStats, handle, stats != nil, err) {
		return stats
	}
	return &model.GitHubStats{
		Username:    firstNonEmpty(prof.Login, handle),
		URL:         prof.URL,
		Followers:   prof.Followers,
		PublicRepos: prof.PublicRepos,
	}
}

func (e *Engine) attachSocial(ctx context.Context, p *model.EnrichedProfile, handle string) {
	if e.social == nil {
		return
	}
	facts, err := within(ctx, e.fetchTimeout, func(ctx context.Context) (*SocialFacts, error) {
		return e.social.Profile(ctx, handle)
	})
	if !e.observe(ctx, collabSocial, handle, facts != nil, err) {
		return
	}
	p.Candidate.XProfile = socialProfile(facts, handle)
	p.AddSource(model.PlatformX)
}

func (e *Engine) attachCodeHost(ctx context.Context, p *model.EnrichedProfile, handle string) {
	stats, err := within(ctx, e.fetchTimeout, func(ctx context.Context) (*model.GitHubStats, error) {
		return e.codeHost.Stats(ctx, handle)
	})
	if !e.observe(ctx, collabCodeHostStats, handle, stats != nil, err) {
		return
	}
	p.Candidate.GitHubProfile = stats
	p.AddSource(model.PlatformGitHub)

	if p.Candidate.Email != "" {
		return
	}
	prof, err := within(ctx, e.fetchTimeout, func(ctx context.Context) (*CodeHostProfile, error) {
		return e.codeHost.Profile(ctx, handle)
	})
	if e.observe(ctx, collabCodeHostProfile, handle, prof != nil, err) {
		p.Candidate.Email = prof.Email
	}
}

func (e *Engine) attachLinkedIn(p *model.EnrichedProfile, refs map[model.Platform]string) {
	if url := refs[model.PlatformLinkedIn]; url != "" {
		p.Candidate.LinkedInURL = url
		p.AddSource(model.PlatformLinkedIn)
	}
}

// mergeInsights merges the non-null fields of an untrusted suggestion.
// Only the current title and company reach the candidate; previous
// companies and education stay on the profile's Insights and never feed
// the score. Failures and unparsable output leave the profile untouched.
func (e *Engine) mergeInsights(ctx context.Context, p *model.EnrichedProfile, text string) {
	if e.insights == nil || strings.TrimSpace(text) == "" {
		return
	}
	raw, err := within(ctx, e.fetchTimeout, func(ctx context.Context) (json.RawMessage, error) {
		return e.insights.SuggestCareerInsights(ctx, text)
	})
	if !e.observe(ctx, collabInsights, "", len(raw) > 0, err) {
		return
	}
	ci, ok := model.DecodeInsights(raw)
	if !ok {
		metrics.RecordInsightMerge(metrics.OutcomeError)
		e.log.Warn(ctx, "unparsable career insights", logger.Int("bytes", len(raw)))
		return
	}
	if ci.Empty() {
		metrics.RecordInsightMerge(metrics.OutcomeNotFound)
		return
	}

	c := &p.Candidate
	if ci.CurrentTitle != nil {
		c.CurrentTitle = *ci.CurrentTitle
	}
	if ci.CurrentCompany != nil {
		c.CurrentCompany = *ci.CurrentCompany
	}
	p.Insights = ci
	metrics.RecordInsightMerge(metrics.OutcomeSuccess)
}

// observe records the outcome of one collaborator call and reports whether
// a usable result came back.
func (e *Engine) observe(ctx context.Context, collaborator, handle string, found bool, err error) bool {
	switch {
	case err != nil:
		outcome := metrics.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.RecordCollaboratorFetch(collaborator, outcome)
		e.log.Warn(ctx, "collaborator unavailable",
			logger.String("collaborator", collaborator),
			logger.String("handle", handle),
			logger.Error(err))
		return false
	case !found:
		metrics.RecordCollaboratorFetch(collaborator, metrics.OutcomeNotFound)
		return false
	}
	metrics.RecordCollaboratorFetch(collaborator, metrics.OutcomeSuccess)
	return true
}

// within runs call under its own timeout. It returns when the deadline
// passes even if call ignores its context.
func within[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// EnrichBatch enriches partial records in parallel. Output order matches
// input order. Each record's own non-zero fields win over enriched ones,
// and a record whose anchor fails keeps its slot as the rescored base.
func (e *Engine) EnrichBatch(ctx context.Context, in []model.PartialCandidate) []model.Candidate {
	out := make([]model.Candidate, len(in))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range in {
		g.Go(func() error {
			out[i] = e.enrichPartial(ctx, in[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) enrichPartial(ctx context.Context, pc model.PartialCandidate) model.Candidate {
	c := pc.Base
	if platform, handle, ok := pc.Anchor(); ok {
		p, err := e.Enrich(ctx, platform, handle)
		switch {
		case err != nil:
			e.log.Warn(ctx, "batch anchor rejected",
				logger.String("platform", string(platform)),
				logger.String("handle", handle),
				logger.Error(err))
		case !p.Empty():
			c = Overlay(p.Candidate, pc.Base)
		}
	}
	e.scorer.Apply(&c)
	return c
}

// Overlay returns enriched with every non-zero field of original laid over
// it. Score and tier are left for the caller to recompute.
func Overlay(enriched, original model.Candidate) model.Candidate {
	out := enriched
	if original.ID != "" {
		out.ID = original.ID
	}
	if original.Name != "" {
		out.Name = original.Name
	}
	if original.Email != "" {
		out.Email = original.Email
	}
	if original.XProfile != nil {
		out.XProfile = original.XProfile
	}
	if original.GitHubProfile != nil {
		out.GitHubProfile = original.GitHubProfile
	}
	if original.LinkedInURL != "" {
		out.LinkedInURL = original.LinkedInURL
	}
	if original.CurrentTitle != "" {
		out.CurrentTitle = original.CurrentTitle
	}
	if original.CurrentCompany != "" {
		out.CurrentCompany = original.CurrentCompany
	}
	if len(original.Experiences) > 0 {
		out.Experiences = original.Experiences
	}
	if original.TotalYearsExperience != 0 {
		out.TotalYearsExperience = original.TotalYearsExperience
	}
	if len(original.Education) > 0 {
		out.Education = original.Education
	}
	if len(original.Publications) > 0 {
		out.Publications = original.Publications
	}
	if original.DiscoveredFrom != "" {
		out.DiscoveredFrom = original.DiscoveredFrom
	}
	if !original.DiscoveredAt.IsZero() {
		out.DiscoveredAt = original.DiscoveredAt
	}
	if original.Notes != "" {
		out.Notes = original.Notes
	}
	return out
}

func socialProfile(f *SocialFacts, handle string) *model.SocialProfile {
	username := firstNonEmpty(f.Username, handle)
	return &model.SocialProfile{
		Platform:        model.PlatformX,
		Username:        username,
		URL:             xProfileURL + username,
		Bio:             f.Bio,
		Followers:       f.Followers,
		EngagementScore: f.Engagement,
	}
}

func joinText(parts ...string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
