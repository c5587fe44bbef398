// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event types published by the portal.
const (
	TypeIPPTransition      = "ipp.transition"
	TypeApplicationCreated = "application.created"
	TypeApplicationStatus  = "application.status"
	TypeInternshipStatus   = "internship.status"
	TypeNotificationResult = "notification.result"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// Publisher emits domain events. Implementations must not block callers on
// broker failures for longer than the context allows.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

type conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes envelopes on "<prefix>.<eventType>".
type NATSPublisher struct {
	conn   conn
	prefix string
	logger *zap.Logger
}

// Connect dials NATS and returns a publisher plus a close function.
func Connect(url, prefix string, logger *zap.Logger) (*NATSPublisher, func(), error) {
	nc, err := nats.Connect(url,
		nats.Name("campus-placement-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	closer := func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	return newNATSPublisher(nc, prefix, logger), closer, nil
}

func newNATSPublisher(c conn, prefix string, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{conn: c, prefix: strings.Trim(prefix, "."), logger: logger}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Publish marshals data into an envelope and publishes it.
func (p *NATSPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", eventType, err)
	}
	if err := p.conn.Publish(p.Subject(eventType), payload); err != nil {
		return fmt.Errorf("publish event %s: %w", eventType, err)
	}
	p.logger.Debug("event published", zap.String("type", eventType))
	return nil
}

// Noop discards events. It is used when no broker is configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, interface{}) error { return nil }
