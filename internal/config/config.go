// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load(ctx) layers .env, YAML and environment overrides on top.
//   - The loaded value is treated as immutable by the rest of the service.
package config

import (
	"runtime"
	"time"

	"github.com/okian/talentradar/internal/domain/classify"
)

// Config contains process configuration.
type Config struct {
	HTTP       HTTP       `koanf:"http"`
	Log        Log        `koanf:"log"`
	Scoring    Scoring    `koanf:"scoring"`
	Enrichment Enrichment `koanf:"enrichment"`
	Queue      Queue      `koanf:"queue"`
	Worker     Worker     `koanf:"worker"`
	Dedupe     Dedupe     `koanf:"dedupe"`
	GitHub     GitHub     `koanf:"github"`
	X          X          `koanf:"x"`
	Gemini     Gemini     `koanf:"gemini"`
	Redis      Redis      `koanf:"redis"`
	NATS       NATS       `koanf:"nats"`
	Store      Store      `koanf:"store"`
}

// HTTP configures the API listener.
type HTTP struct {
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxListLimit caps ?limit on list endpoints.
	MaxListLimit int `koanf:"max_list_limit"`
}

// Log configures the global logger.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Weights holds the relative importance of each sub-score.
type Weights struct {
	FAANG        float64 `koanf:"faang_experience"`
	FrontierLabs float64 `koanf:"frontier_labs_experience"`
	TopTech      float64 `koanf:"top_tech_companies"`
	GitHub       float64 `koanf:"github_activity"`
	XEngagement  float64 `koanf:"x_engagement"`
	Research     float64 `koanf:"research_publications"`
	Education    float64 `koanf:"education_tier"`
	Years        float64 `koanf:"years_experience"`
	OpenSource   float64 `koanf:"open_source_contributions"`
	Leadership   float64 `koanf:"leadership_roles"`
}

// Tables holds the classification reference lists.
type Tables struct {
	FAANG           []string `koanf:"faang_companies"`
	FrontierLabs    []string `koanf:"frontier_labs"`
	TopTech         []string `koanf:"top_tech_companies"`
	TopUniversities []string `koanf:"top_universities"`
}

// Scoring groups weights and tables.
type Scoring struct {
	Weights Weights `koanf:"weights"`
	Tables  Tables  `koanf:"tables"`
}

// Enrichment tunes the enrichment engine.
type Enrichment struct {
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	Concurrency  int           `koanf:"concurrency"`
}

// Queue bounds the in-memory enrichment job queue.
type Queue struct {
	Size int `koanf:"size"`
}

// Worker sets the number of enrichment workers.
type Worker struct {
	Count int `koanf:"count"`
}

// Dedupe sets the size of the anchor deduplication cache.
type Dedupe struct {
	Size int `koanf:"size"`
}

// GitHub configures the code-hosting collaborator.
type GitHub struct {
	BaseURL string `koanf:"base_url"`
	Token   string `koanf:"token"`
}

// X configures the social collaborator.
type X struct {
	BaseURL     string `koanf:"base_url"`
	BearerToken string `koanf:"bearer_token"`
}

// Gemini configures the career insight suggester. Empty APIKey disables it.
type Gemini struct {
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	Temperature float32 `koanf:"temperature"`
}

// Redis configures the collaborator response cache. Empty Addr disables it.
type Redis struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

// NATS configures scored candidate events. Empty URL disables publishing.
type NATS struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

// Store selects the candidate repository backend.
type Store struct {
	Backend string `koanf:"backend"` // memory or postgres
	DSN     string `koanf:"dsn"`
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		HTTP: HTTP{
			Addr:         ":9080",
			MaxListLimit: 100,
		},
		Log: Log{Level: "info", Format: "console"},
		Scoring: Scoring{
			Weights: Weights{
				FAANG:        30,
				FrontierLabs: 35,
				TopTech:      25,
				GitHub:       15,
				XEngagement:  10,
				Research:     20,
				Education:    15,
				Years:        10,
				OpenSource:   12,
				Leadership:   8,
			},
			Tables: defaultTables(),
		},
		Enrichment: Enrichment{
			FetchTimeout: 10 * time.Second,
			Concurrency:  4,
		},
		Queue:  Queue{Size: 10_000},
		Worker: Worker{Count: runtime.NumCPU()},
		Dedupe: Dedupe{Size: 100_000},
		GitHub: GitHub{BaseURL: "https://api.github.com"},
		X:      X{BaseURL: "https://api.twitter.com"},
		Gemini: Gemini{Model: "gemini-2.5-flash", Temperature: 0.1},
		Redis:  Redis{TTL: 6 * time.Hour},
		NATS:   NATS{Subject: "talentradar.candidates.scored"},
		Store:  Store{Backend: BackendMemory},
	}
}

func defaultTables() Tables {
	l := classify.DefaultLists()
	return Tables{
		FAANG:           l.FAANG,
		FrontierLabs:    l.FrontierLabs,
		TopTech:         l.TopTech,
		TopUniversities: l.TopUniversities,
	}
}

// ClassifyLists converts the configured tables for classify.New.
func (t Tables) ClassifyLists() classify.Lists {
	return classify.Lists{
		FAANG:           t.FAANG,
		FrontierLabs:    t.FrontierLabs,
		TopTech:         t.TopTech,
		TopUniversities: t.TopUniversities,
	}
}
