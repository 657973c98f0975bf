// Package events forwards domain events to NATS so other services can follow
// pipeline changes without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/soaringjerry/Talentflow/internal/services"
	"github.com/soaringjerry/Talentflow/internal/telemetry"
)

var tracer = telemetry.GetTracer("talentflow/internal/events")

// SubjectPrefix is prepended to every event type to form the NATS subject.
const SubjectPrefix = "talentflow."

type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// NATSPublisher implements services.EventPublisher on a core NATS connection.
type NATSPublisher struct {
	conn   conn
	logger *zap.Logger
}

func NewNATSPublisher(url string, timeout time.Duration, logger *zap.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(telemetry.ServiceName),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return newPublisher(nc, logger), nil
}

func newPublisher(c conn, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{conn: c, logger: logger.Named("events")}
}

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// Publish is best effort: failures are recorded on the span and logged.
func (p *NATSPublisher) Publish(ctx context.Context, ev services.Event) {
	_, span := tracer.Start(ctx, "Publish")
	defer span.End()

	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		p.logger.Error("failed to marshal event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	subject := Subject(ev.Type)
	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)
	if err := p.conn.Publish(subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish event", zap.String("subject", subject), zap.Error(err))
		return
	}
	p.logger.Debug("published event", zap.String("subject", subject))
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

var _ services.EventPublisher = (*NATSPublisher)(nil)
