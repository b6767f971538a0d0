// Package events publishes entity lifecycle events to Kafka. The
// producer is optional: when no brokers are configured the rest of the
// API runs without it, and publish failures never fail a request.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	OrderCreated = "order_created"
	OrderUpdated = "order_updated"
	OrderDeleted = "order_deleted"
)

// EntityEvent is the wire shape of a lifecycle event.
type EntityEvent struct {
	EventType   string  `json:"event_type"`
	Entity      string  `json:"entity"`
	EntityID    int     `json:"entity_id"`
	Actor       *int    `json:"actor,omitempty"`
	TotalAmount float64 `json:"total_amount,omitempty"`
}

func InitProducer(brokers []string, logger *zap.Logger) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info("Kafka producer initialized")
	return producer, nil
}

// Publish sends one event, propagating the trace context through the
// message headers. A nil producer is a no-op.
func Publish(ctx context.Context, producer sarama.SyncProducer, topic string, event EntityEvent, logger *zap.Logger) error {
	if producer == nil {
		return nil
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.StringEncoder(eventJSON),
	}

	propagator := otel.GetTextMapPropagator()
	carrier := make(headerCarrier, 0)
	propagator.Inject(ctx, &carrier)
	msg.Headers = []sarama.RecordHeader(carrier)

	partition, offset, err := producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	traceID := ""
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		traceID = span.SpanContext().TraceID().String()
	}

	logger.Info("Event published",
		zap.String("trace_id", traceID),
		zap.String("topic", topic),
		zap.String("event_type", event.EventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}

// headerCarrier adapts Kafka record headers to the otel TextMapCarrier.
type headerCarrier []sarama.RecordHeader

func (c headerCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{
		Key:   []byte(key),
		Value: []byte(value),
	})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
