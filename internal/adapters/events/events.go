// Package events publishes scored candidate notifications.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/pkg/logger"
	"github.com/okian/talentradar/pkg/metrics"
)

const (
	DefaultSubject = "talentradar.candidates.scored"

	connectTimeout = 5 * time.Second
)

var ErrMissingURL = errors.New("events: nats url is required")

// CandidateScored is emitted after an enriched or rescored candidate is
// stored.
type CandidateScored struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Total    float64          `json:"total"`
	Tier     model.Tier       `json:"tier"`
	Sources  []model.Platform `json:"sources,omitempty"`
	ScoredAt time.Time        `json:"scored_at"`
}

// NewCandidateScored builds the event for c.
func NewCandidateScored(c model.Candidate, sources []model.Platform, at time.Time) CandidateScored {
	return CandidateScored{
		ID:       c.ID,
		Name:     c.Name,
		Total:    c.Score.Total,
		Tier:     c.Tier,
		Sources:  sources,
		ScoredAt: at.UTC(),
	}
}

// Publisher sends scored candidate events.
type Publisher interface {
	PublishScored(ctx context.Context, ev CandidateScored) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) PublishScored(context.Context, CandidateScored) error { return nil }
func (Nop) Close() error                                          { return nil }

// NATS publishes events as JSON on one subject.
type NATS struct {
	conn    *nats.Conn
	subject string
	log     logger.Logger
}

var _ Publisher = (*NATS)(nil)

// Connect dials url. An empty subject falls back to DefaultSubject.
func Connect(url, subject string, log logger.Logger) (*NATS, error) {
	if url == "" {
		return nil, ErrMissingURL
	}
	if subject == "" {
		subject = DefaultSubject
	}
	if log == nil {
		log = logger.NewNop()
	}
	conn, err := nats.Connect(url,
		nats.Name("talentradar"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATS{conn: conn, subject: subject, log: log}, nil
}

// PublishScored implements Publisher.
func (p *NATS) PublishScored(ctx context.Context, ev CandidateScored) error {
	data, err := json.Marshal(ev)
	if err != nil {
		metrics.RecordEventPublished(metrics.OutcomeError)
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		metrics.RecordEventPublished(metrics.OutcomeError)
		p.log.Error(ctx, "failed to publish scored candidate",
			logger.String("id", ev.ID),
			logger.String("subject", p.subject),
			logger.Error(err))
		return fmt.Errorf("publish to nats: %w", err)
	}
	metrics.RecordEventPublished(metrics.OutcomeSuccess)
	p.log.Debug(ctx, "published scored candidate",
		logger.String("id", ev.ID),
		logger.String("subject", p.subject))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATS) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
