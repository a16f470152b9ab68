package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/talentradar/internal/adapters/cache"
	"github.com/okian/talentradar/internal/adapters/events"
	"github.com/okian/talentradar/internal/adapters/gemini"
	"github.com/okian/talentradar/internal/adapters/github"
	"github.com/okian/talentradar/internal/adapters/httpfetch"
	"github.com/okian/talentradar/internal/adapters/repository"
	"github.com/okian/talentradar/internal/adapters/xsocial"
	"github.com/okian/talentradar/internal/config"
	"github.com/okian/talentradar/internal/domain/classify"
	"github.com/okian/talentradar/internal/domain/enrichment"
	"github.com/okian/talentradar/internal/domain/scoring"
	"github.com/okian/talentradar/pkg/logger"
)

const cachePingTimeout = 2 * time.Second

// Cache key prefixes per collaborator.
const (
	githubCachePrefix = "gh"
	xCachePrefix      = "x"
)

// BuildScorer creates the scoring engine and its tables from cfg.
func BuildScorer(cfg *config.Config) (*scoring.Engine, *classify.Tables) {
	tables := classify.New(cfg.Scoring.Tables.ClassifyLists())
	w := cfg.Scoring.Weights
	engine := scoring.New(
		scoring.WithTables(tables),
		scoring.WithWeights(scoring.Weights{
			FAANG:        w.FAANG,
			FrontierLabs: w.FrontierLabs,
			TopTech:      w.TopTech,
			GitHub:       w.GitHub,
			XEngagement:  w.XEngagement,
			Research:     w.Research,
			Education:    w.Education,
			Years:        w.Years,
			OpenSource:   w.OpenSource,
			Leadership:   w.Leadership,
		}),
	)
	return engine, tables
}

// BuildCache connects to redis when configured. An unreachable server is
// logged and replaced by a no-op cache.
func BuildCache(ctx context.Context, cfg *config.Config, log logger.Logger) cache.Cache {
	if cfg.Redis.Addr == "" {
		return cache.Nop{}
	}
	r := cache.NewRedis(cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		log.Warn(ctx, "redis unavailable; collaborator responses will not be cached",
			logger.String("addr", cfg.Redis.Addr), logger.Error(err))
		_ = r.Close()
		return cache.Nop{}
	}
	log.Info(ctx, "caching collaborator responses in redis", logger.String("addr", cfg.Redis.Addr))
	return r
}

// Collaborators are the enrichment data sources. Nil fields are disabled.
type Collaborators struct {
	CodeHost enrichment.CodeHost
	Social   enrichment.Social
	Insights enrichment.InsightSuggester
}

// BuildCollaborators creates the platform clients enabled by cfg. The X
// client needs a bearer token and the insight client an API key.
func BuildCollaborators(ctx context.Context, cfg *config.Config, c cache.Cache, log logger.Logger) (Collaborators, error) {
	var out Collaborators

	out.CodeHost = github.New(cfg.GitHub.BaseURL, cfg.GitHub.Token,
		github.WithLogger(log.Named("github")),
		github.WithFetchOptions(httpfetch.WithCache(c, cfg.Redis.TTL, githubCachePrefix)),
	)

	if cfg.X.BearerToken != "" {
		out.Social = xsocial.New(cfg.X.BaseURL, cfg.X.BearerToken, log.Named("x"),
			httpfetch.WithCache(c, cfg.Redis.TTL, xCachePrefix))
	} else {
		log.Info(ctx, "x bearer token not set; x enrichment disabled")
	}

	if cfg.Gemini.APIKey != "" {
		g, err := gemini.New(ctx, cfg.Gemini.APIKey,
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithTemperature(cfg.Gemini.Temperature),
			gemini.WithLogger(log.Named("gemini")),
		)
		if err != nil {
			return out, fmt.Errorf("insight client: %w", err)
		}
		out.Insights = g
	} else {
		log.Info(ctx, "gemini api key not set; career insights disabled")
	}
	return out, nil
}

// BuildEnricher creates the enrichment engine over collab.
func BuildEnricher(cfg *config.Config, collab Collaborators, scorer scoring.Scorer, log logger.Logger) *enrichment.Engine {
	opts := []enrichment.Option{
		enrichment.WithFetchTimeout(cfg.Enrichment.FetchTimeout),
		enrichment.WithConcurrency(cfg.Enrichment.Concurrency),
		enrichment.WithLogger(log.Named("enrichment")),
	}
	if collab.Insights != nil {
		opts = append(opts, enrichment.WithInsights(collab.Insights))
	}
	return enrichment.New(collab.CodeHost, collab.Social, scorer, opts...)
}

// BuildStore opens the configured repository backend.
func BuildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		st, err := repository.OpenGormStore(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return st, nil
	default:
		return repository.NewTreapStore(ctx), nil
	}
}

// BuildPublisher connects to NATS when configured.
func BuildPublisher(cfg *config.Config, log logger.Logger) (events.Publisher, error) {
	if cfg.NATS.URL == "" {
		return events.Nop{}, nil
	}
	p, err := events.Connect(cfg.NATS.URL, cfg.NATS.Subject, log.Named("events"))
	if err != nil {
		return nil, err
	}
	return p, nil
}
