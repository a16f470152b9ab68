// Package gemini suggests career insights from free text using the Gemini
// API. Its output is untrusted; callers decode it field by field.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/genai"

	"github.com/okian/talentradar/internal/domain/enrichment"
	"github.com/okian/talentradar/pkg/logger"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultTemperature = 0.1
	maxOutputTokens    = 1024
	maxInputChars      = 4000
)

const promptTemplate = `Extract career information from the profile text below.
Reply with a single JSON object and nothing else, using exactly these keys:
  "current_title": string or null,
  "current_company": string or null,
  "previous_companies": array of strings,
  "education": string or null.
Use null when the text does not say.

Profile text:
%s`

var (
	ErrMissingAPIKey = errors.New("gemini: api key is required")
	ErrEmptyResponse = errors.New("gemini: empty response")
	ErrEmptyText     = errors.New("gemini: text must not be empty")
)

// generator is the subset of the genai models service the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements enrichment.InsightSuggester.
type Client struct {
	gen         generator
	model       string
	temperature float32
	attempts    uint
	delay       time.Duration
	log         logger.Logger
}

var _ enrichment.InsightSuggester = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model = strings.TrimSpace(model); model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Client) { c.temperature = t }
}

// WithRetry sets the attempt count and base delay for transient failures.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.delay = delay
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client on the Gemini API backend.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newWithGenerator(gc.Models, opts...), nil
}

func newWithGenerator(gen generator, opts ...Option) *Client {
	c := &Client{
		gen:         gen,
		model:       defaultModel,
		temperature: defaultTemperature,
		attempts:    2,
		delay:       500 * time.Millisecond,
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// SuggestCareerInsights asks the model for a JSON suggestion about text.
// The returned bytes are whatever the model produced once code fences are
// stripped; they are not validated.
func (c *Client) SuggestCareerInsights(ctx context.Context, text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	temperature := c.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	prompt := fmt.Sprintf(promptTemplate, text)

	out, err := retry.DoWithData(
		func() (string, error) {
			resp, err := c.gen.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
			if err != nil {
				return "", fmt.Errorf("generate content: %w", err)
			}
			return responseText(resp)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxJitter(c.delay/2+time.Millisecond),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn(ctx, "retrying insight suggestion",
				logger.Int("attempt", int(n)+1),
				logger.String("model", c.model),
				logger.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(extractJSON(out)), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			b.WriteString(part.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// extractJSON strips markdown code fences and any prose around the first
// JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
