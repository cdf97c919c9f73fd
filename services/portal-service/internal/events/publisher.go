// Package events publishes portal appointment events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/staffportal/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Type builds the topic name for an appointment action, e.g. portal.appointment.cancelled.v1.
func Type(action string) string {
	return fmt.Sprintf("portal.appointment.%s.v1", action)
}

type Event struct {
	Type        string
	AggregateID string
	Payload     any
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w      messageWriter
	tracer trace.Tracer
	logger *slog.Logger
}

// New returns a Kafka publisher, or Nop when brokers is empty.
func New(brokers string, logger *slog.Logger) Publisher {
	list := kafkax.SplitBrokers(brokers)
	if len(list) == 0 {
		logger.Warn("event publishing disabled (no kafka brokers configured)")
		return Nop{}
	}
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(list...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}, logger)
}

func newKafkaPublisher(w messageWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{w: w, tracer: otel.Tracer("portal-service/events"), logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	ctx, span := p.tracer.Start(ctx, "publish "+evt.Type, trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination.name", evt.Type),
	)

	body, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", evt.Type, err)
	}
	msg := kafkax.NewMessage(ctx, kafkax.EventMeta{EventID: uuid.NewString(), EventType: evt.Type}, evt.AggregateID, body)
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}
	p.logger.Debug("event published", "event_type", evt.Type, "aggregate_id", evt.AggregateID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
