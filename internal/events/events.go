// Package events publishes completed validations to a message broker so
// downstream consumers can audit or reprocess them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/domain"
)

// DefaultSubject is the subject validations are published on.
const DefaultSubject = "address.validated"

// Event is the message published for each completed validation.
type Event struct {
	RequestID    string            `json:"request_id,omitempty"`
	Status       address.Status    `json:"status"`
	Input        string            `json:"input"`
	Standardized string            `json:"standardized,omitempty"`
	Corrections  map[string]string `json:"corrections,omitempty"`
	ValidatedAt  time.Time         `json:"validated_at"`
}

// NewEvent builds the event for res. The request ID is taken from ctx.
func NewEvent(ctx context.Context, res address.ValidationResult, at time.Time) Event {
	e := Event{
		RequestID:   domain.RequestIDFromContext(ctx),
		Status:      res.Status,
		Input:       res.Input,
		Corrections: res.Corrections,
		ValidatedAt: at.UTC(),
	}
	if res.Final != nil {
		e.Standardized = res.Final.Standardized
	}
	return e
}

// Publisher sends validation events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    Conn
	subject string
}

// NewNATSPublisher publishes on subject through conn.
func NewNATSPublisher(conn Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// Connect dials the NATS server at url. Reconnects are unbounded; connection
// state changes are logged on logger.
func Connect(url, subject string, logger zerolog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("addressd"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, domain.Unavailable(err, "events.Connect", "message broker unavailable")
	}
	return NewNATSPublisher(nc, subject), nil
}

// Publish encodes e and hands it to the connection. Delivery is at most once.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return domain.Internal(err, "events.Publish", "encode event")
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	zerolog.Ctx(ctx).Debug().Str("subject", p.subject).Msg("validation event published")
	return nil
}

// Subject returns the subject events are published on.
func (p *NATSPublisher) Subject() string { return p.subject }

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                        { return nil }
