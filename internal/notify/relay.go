package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/storefront/ordermonitor/internal/gateway/core/ports"
)

// readRetryDelay paces the loop after a transient broker error so it
// does not spin while the broker is unreachable.
const readRetryDelay = time.Second

// processedEvent is what the asynchronous order processor publishes
// once it has finished handling a previously created order.
type processedEvent struct {
	OrderID string `json:"orderId"`
}

// Relay consumes order-processed events and forwards each order id to
// the notifier. It performs no business logic.
type Relay struct {
	reader   *kafka.Reader
	notifier ports.Notifier
}

// NewRelay builds a relay reading topic within groupID.
func NewRelay(brokers []string, topic, groupID string, notifier ports.Notifier) *Relay {
	return &Relay{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		notifier: notifier,
	}
}

// Close releases the reader.
func (r *Relay) Close() error { return r.reader.Close() }

// Run consumes until ctx is cancelled or the reader is closed.
// Transient broker errors are logged and retried after a short delay;
// undecodable messages are logged and skipped so a poison message
// cannot wedge the relay.
func (r *Relay) Run(ctx context.Context) {
	for {
		m, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if readerDone(ctx, err) {
				return
			}
			slog.Error("notify: read order-processed message", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		r.handle(m)
	}
}

// readerDone reports whether the consume loop should stop: the context
// was cancelled or the reader was closed, which kafka-go surfaces as
// io.EOF.
func readerDone(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// handle decodes one message and forwards it. Malformed messages are
// dropped with a log line.
func (r *Relay) handle(m kafka.Message) {
	var ev processedEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		slog.Error("notify: unmarshal order-processed message", "error", err, "offset", m.Offset)
		return
	}
	if ev.OrderID == "" {
		slog.Warn("notify: order-processed message without orderId", "offset", m.Offset)
		return
	}
	r.notifier.OrderProcessed(ev.OrderID)
}
