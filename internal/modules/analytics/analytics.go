// Package analytics forwards product events to Kafka for downstream
// reporting. Without brokers configured events are dropped.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventPriceContributed   = "price_contributed"
	EventContributionReview = "contribution_reviewed"
	EventComparisonCreated  = "comparison_created"
	EventAlertTriggered     = "price_alert_triggered"
	EventUserSignedUp       = "user_signed_up"
)

type Event struct {
	Name       string                 `json:"name"`
	UserID     string                 `json:"user_id,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// New returns a Kafka publisher, or a no-op one when brokers is empty.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return noopPublisher{}
	}
	return &kafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}}
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func (p *kafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(e.Name)},
		},
	})
}

func (p *kafkaPublisher) Close() error { return p.writer.Close() }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                        { return nil }
