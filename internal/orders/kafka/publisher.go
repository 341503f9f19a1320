// Package kafka publishes order domain events for out-of-process
// consumers (order processors, projections).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/storefront/ordermonitor/internal/gateway/core/domain/entity"
)

// Publisher wraps a kafka writer for the order-created topic.
type Publisher struct {
	w *kafka.Writer
}

// NewPublisher configures the writer for reliability:
// Hash balancer + order id key keeps one order on one partition,
// RequireAll waits for ISR acknowledgement.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Close releases the writer resources.
func (p *Publisher) Close() error { return p.w.Close() }

// OrderCreated publishes the full persisted order, keyed by order id.
func (p *Publisher) OrderCreated(ctx context.Context, order entity.Order) error {
	b, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("kafka: marshal order %q: %w", order.ID, err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: b,
	}); err != nil {
		return fmt.Errorf("kafka: publish order-created for %q: %w", order.ID, err)
	}
	return nil
}
