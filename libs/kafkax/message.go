package kafkax

import (
	"context"
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

// EventMeta is the metadata every portal message carries in its headers.
type EventMeta struct {
	EventID   string
	EventType string
}

// NewMessage builds a message whose topic equals the event type, keyed by
// aggregate id so events of one aggregate stay ordered within a partition.
func NewMessage(ctx context.Context, meta EventMeta, aggregateID string, payload []byte) kafka.Message {
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(meta.EventID)},
		{Key: HeaderEventType, Value: []byte(meta.EventType)},
	}
	return kafka.Message{
		Topic:   meta.EventType,
		Key:     []byte(aggregateID),
		Value:   payload,
		Headers: InjectTraceHeaders(ctx, headers),
	}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
