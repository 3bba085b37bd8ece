// Package eventbus publishes completed interventions to NATS so other
// services can follow what the daemon blocked.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"ward/internal/logging"
)

// DefaultSubject is used when events.subject is empty.
const DefaultSubject = "ward.interventions"

// InterventionEvent is the JSON document published per intervention.
type InterventionEvent struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	ArtistLine    string        `json:"artist_line,omitempty"`
	Tier          string        `json:"tier"`
	Rule          string        `json:"rule"`
	Outcome       string        `json:"outcome"`
	Confirmed     bool          `json:"confirmed"`
	Advanced      bool          `json:"advanced"`
	Seeked        bool          `json:"seeked"`
	Attempts      int           `json:"attempts"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration_ns"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// Publisher delivers intervention events.
type Publisher interface {
	PublishIntervention(ctx context.Context, event InterventionEvent) error
	Close() error
}

// Connect returns a NATS-backed publisher, or a no-op publisher when url is
// empty. The connection retries in the background so an unreachable server
// does not block daemon startup.
func Connect(url, subject string, logger *slog.Logger) (Publisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return NoopPublisher{}, nil
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	logger = logging.NewComponentLogger(logger, "eventbus")

	conn, err := nats.Connect(url,
		nats.Name("ward"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.WarnWithContext(logger, "nats disconnected", "nats_disconnected",
					logging.Error(err),
					logging.String(logging.FieldImpact, "intervention events are dropped until reconnect"),
				)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", logging.String("server", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	logger.Info("nats publisher initialized",
		logging.String("url", url),
		logging.String("subject", subject),
	)
	return &natsPublisher{conn: conn, subject: subject, logger: logger}, nil
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func (p *natsPublisher) PublishIntervention(ctx context.Context, event InterventionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal intervention event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish intervention event: %w", err)
	}
	p.logger.Debug("published intervention event",
		logging.String("id", event.ID),
		logging.String("subject", p.subject),
	)
	return nil
}

func (p *natsPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}
	return nil
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) PublishIntervention(context.Context, InterventionEvent) error { return nil }
func (NoopPublisher) Close() error                                                { return nil }
