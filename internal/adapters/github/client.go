// Package github is the code-hosting collaborator backed by the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/talentradar/internal/adapters/httpfetch"
	"github.com/okian/talentradar/internal/domain/enrichment"
	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/pkg/logger"
)

const (
	notableStars    = 50
	topLanguages    = 5
	reposPerPage    = 100
	contributionAge = 365 * 24 * time.Hour
)

type userDTO struct {
	Login           string    `json:"login"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Bio             string    `json:"bio"`
	Company         string    `json:"company"`
	Blog            string    `json:"blog"`
	TwitterUsername string    `json:"twitter_username"`
	PublicRepos     int       `json:"public_repos"`
	Followers       int       `json:"followers"`
	CreatedAt       time.Time `json:"created_at"`
	HTMLURL         string    `json:"html_url"`
}

type repoDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Stars       int    `json:"stargazers_count"`
	Forks       int    `json:"forks_count"`
	Language    string `json:"language"`
	Fork        bool   `json:"fork"`
}

type eventDTO struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Payload   struct {
		Size    int        `json:"size"`
		Commits []struct{} `json:"commits"`
	} `json:"payload"`
}

// Client implements enrichment.CodeHost.
type Client struct {
	baseURL string
	fetch   *httpfetch.Fetcher
	log     logger.Logger
	now     func() time.Time
}

var _ enrichment.CodeHost = (*Client)(nil)

// New creates a Client for baseURL. A non-empty token is sent on every request.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.NewNop(),
		now:     time.Now,
	}
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log != nil {
		c.log = cfg.log
	}
	if cfg.now != nil {
		c.now = cfg.now
	}

	fetchOpts := append([]httpfetch.Option{
		httpfetch.WithHeader("Accept", "application/vnd.github+json"),
		httpfetch.WithLogger(c.log),
	}, cfg.fetch...)
	if token != "" {
		fetchOpts = append(fetchOpts, httpfetch.WithHeader("Authorization", "Bearer "+token))
	}
	c.fetch = httpfetch.New(fetchOpts...)
	return c
}

func (c *Client) userURL(handle string, suffix string) string {
	return c.baseURL + "/users/" + url.PathEscape(handle) + suffix
}

func (c *Client) user(ctx context.Context, handle string) (*userDTO, error) {
	var u userDTO
	found, err := c.fetch.GetJSON(ctx, c.userURL(handle, ""), &u)
	if err != nil {
		return nil, fmt.Errorf("github user %s: %w", handle, err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

// Profile implements enrichment.CodeHost.Profile.
func (c *Client) Profile(ctx context.Context, handle string) (*enrichment.CodeHostProfile, error) {
	u, err := c.user(ctx, handle)
	if err != nil || u == nil {
		return nil, err
	}
	return &enrichment.CodeHostProfile{
		Login:           u.Login,
		Name:            u.Name,
		Email:           u.Email,
		Bio:             u.Bio,
		Blog:            u.Blog,
		Company:         u.Company,
		TwitterUsername: u.TwitterUsername,
		URL:             u.HTMLURL,
		Followers:       u.Followers,
		PublicRepos:     u.PublicRepos,
		CreatedAt:       u.CreatedAt,
	}, nil
}

// Stats implements enrichment.CodeHost.Stats. Profile, repositories and
// public events are fetched in parallel; missing events only zero the
// contribution count.
func (c *Client) Stats(ctx context.Context, handle string) (*model.GitHubStats, error) {
	var (
		u      *userDTO
		repos  []repoDTO
		events []eventDTO
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		u, err = c.user(gctx, handle)
		return err
	})
	g.Go(func() error {
		_, err := c.fetch.GetJSON(gctx, c.userURL(handle, fmt.Sprintf("/repos?sort=updated&per_page=%d", reposPerPage)), &repos)
		if err != nil {
			return fmt.Errorf("github repos %s: %w", handle, err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := c.fetch.GetJSON(gctx, c.userURL(handle, "/events/public"), &events); err != nil {
			c.log.Warn(gctx, "github events unavailable", logger.String("handle", handle), logger.Error(err))
			events = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return c.summarize(handle, u, repos, events), nil
}

func (c *Client) summarize(handle string, u *userDTO, repos []repoDTO, events []eventDTO) *model.GitHubStats {
	now := c.now()
	s := &model.GitHubStats{
		Username:              handle,
		URL:                   u.HTMLURL,
		Followers:             u.Followers,
		PublicRepos:           u.PublicRepos,
		ContributionsLastYear: contributions(events, now),
		TopLanguages:          languages(repos),
	}
	if !u.CreatedAt.IsZero() {
		s.AccountAgeDays = int(now.Sub(u.CreatedAt).Hours() / 24)
	}

	sorted := append([]repoDTO(nil), repos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Stars != sorted[j].Stars {
			return sorted[i].Stars > sorted[j].Stars
		}
		return sorted[i].Name < sorted[j].Name
	})
	for _, r := range sorted {
		s.TotalStars += r.Stars
		s.TotalForks += r.Forks
		if r.Stars >= notableStars {
			s.NotableProjects = append(s.NotableProjects, model.Project{
				Name:        r.Name,
				Stars:       r.Stars,
				Description: r.Description,
				URL:         r.HTMLURL,
			})
		}
	}
	return s
}

// languages returns the most used repository languages, ties by name.
func languages(repos []repoDTO) []string {
	counts := make(map[string]int)
	for _, r := range repos {
		if r.Language != "" {
			counts[r.Language]++
		}
	}
	out := make([]string, 0, len(counts))
	for lang := range counts {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	if len(out) > topLanguages {
		out = out[:topLanguages]
	}
	return out
}

// contributions counts pushed commits plus opened pull requests and issues
// within the last year.
func contributions(events []eventDTO, now time.Time) int {
	cutoff := now.Add(-contributionAge)
	total := 0
	for _, ev := range events {
		if ev.CreatedAt.Before(cutoff) {
			continue
		}
		switch ev.Type {
		case "PushEvent":
			total += max(len(ev.Payload.Commits), ev.Payload.Size)
		case "PullRequestEvent", "IssuesEvent":
			total++
		}
	}
	return total
}
