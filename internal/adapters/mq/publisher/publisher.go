// Package publisher fans game events out to NATS so other services can
// follow score activity.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/pkg/logger"
	"github.com/okian/carom/pkg/metrics"
)

// DefaultSubjectPrefix is prepended to the event kind.
const DefaultSubjectPrefix = "carom.games"

// Publisher broadcasts game events.
type Publisher interface {
	Publish(ctx context.Context, e model.GameEvent) error
	Close() error
}

// conn is the slice of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON-encoded events on core NATS subjects.
type NATSPublisher struct {
	nc     conn
	prefix string
	logger logger.Logger
}

// Connect dials url and returns a NATS publisher. An empty url yields a Noop.
func Connect(url string, opts ...Option) (Publisher, error) {
	if url == "" {
		return Noop{}, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("carom"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return newNATSPublisher(nc, opts...), nil
}

func newNATSPublisher(nc conn, opts ...Option) *NATSPublisher {
	p := &NATSPublisher{nc: nc, prefix: DefaultSubjectPrefix}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("publisher")
	}
	return p
}

// Subject returns the subject an event of kind is published on.
func (p *NATSPublisher) Subject(kind model.EventKind) string {
	return p.prefix + "." + string(kind)
}

// Publish encodes e and sends it. Failures are counted and returned; callers
// treat them as non-fatal.
func (p *NATSPublisher) Publish(ctx context.Context, e model.GameEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		metrics.RecordPublishError()
		return fmt.Errorf("encode event %s: %w", e.EventID, err)
	}
	if err := p.nc.Publish(p.Subject(e.Kind), data); err != nil {
		metrics.RecordPublishError()
		metrics.RecordErrorByComponent("publisher", "publish_failed")
		p.logger.Warn(ctx, "publish failed", logger.String("eventID", e.EventID), logger.Error(err))
		return fmt.Errorf("publish event %s: %w", e.EventID, err)
	}
	metrics.RecordEventPublished(string(e.Kind))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, model.GameEvent) error { return nil }

func (Noop) Close() error { return nil }
