package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"roombook/pkg/logger"
)

// Publisher is what the booking service depends on; the Kafka producer below
// is the production implementation.
type Publisher interface {
	PublishBookingEvent(ctx context.Context, eventType string, event BookingEvent) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	source string
	log    *logger.Logger
	mu     sync.Mutex
	closed bool
}

func NewProducer(brokers []string, topic, source string, log *logger.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		source: source,
		log:    log,
	}, nil
}

// PublishBookingEvent writes one event keyed by request id, so all events
// for a saga land on the same partition in order.
func (p *Producer) PublishBookingEvent(ctx context.Context, eventType string, event BookingEvent) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("event producer is closed")
	}
	p.mu.Unlock()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RequestID),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(uuid.New().String())},
			{Key: HeaderEventType, Value: []byte(eventType)},
			{Key: HeaderCorrelationID, Value: []byte(event.CorrelationID)},
			{Key: HeaderSource, Value: []byte(p.source)},
			{Key: HeaderTimestamp, Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	p.log.Debug("Booking event published",
		"event_type", eventType,
		"request_id", event.RequestID,
		"correlation_id", event.CorrelationID,
	)
	return nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
