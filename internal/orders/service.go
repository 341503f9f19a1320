// Package orders implements the order submission path: validate,
// persist, then announce the new order on the order-created topic.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/storefront/ordermonitor/internal/gateway/core/domain/entity"
	"github.com/storefront/ordermonitor/internal/gateway/core/ports"
	"github.com/storefront/ordermonitor/internal/pkg/auth"
	"github.com/storefront/ordermonitor/internal/pkg/cache"
)

// ErrInvalidOrder rejects a submission whose positions are missing or
// carry a non-positive quantity.
var ErrInvalidOrder = errors.New("orders: invalid order")

// Service accepts new orders on behalf of an authenticated caller.
type Service struct {
	store           ports.OrderStore
	publisher       ports.EventPublisher
	idempotency     cache.IdempotencyStore
	publishFailures metric.Int64Counter
	now             func() time.Time
	newID           func() string
}

// NewService wires the submission path. idempotency may be nil, in
// which case every request creates a new order.
func NewService(store ports.OrderStore, publisher ports.EventPublisher, idempotency cache.IdempotencyStore) *Service {
	publishFailures, err := otel.Meter("gateway").Int64Counter("gateway.publish_failures",
		metric.WithDescription("Order-created publishes that failed after the order was persisted"))
	if err != nil {
		slog.Error("orders: create publish_failures counter", "error", err)
	}
	return &Service{
		store:           store,
		publisher:       publisher,
		idempotency:     idempotency,
		publishFailures: publishFailures,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// Create validates and persists a new order for the caller, then
// publishes the order-created event. The caller's identity comes from
// the validated credential, never from the request body.
//
// The publish is fire-and-forget: persistence success is acknowledged
// regardless of publish outcome, which is logged and counted only.
func (s *Service) Create(ctx context.Context, caller auth.Identity, idempotencyKey string, positions []entity.Position) (string, error) {
	if len(positions) == 0 {
		return "", fmt.Errorf("%w: at least one position is required", ErrInvalidOrder)
	}
	for _, p := range positions {
		if p.ProductID == "" || p.Quantity <= 0 {
			return "", fmt.Errorf("%w: productId and a positive quantity are required", ErrInvalidOrder)
		}
	}

	order := entity.Order{
		ID:        s.newID(),
		UserID:    caller.UserID,
		UserName:  caller.UserName,
		Positions: positions,
		CreatedAt: s.now().UTC(),
	}

	claimed := false
	if idempotencyKey != "" && s.idempotency != nil {
		existing, created, err := s.idempotency.Remember(ctx, idempotencyKey, order.ID)
		if err != nil {
			return "", fmt.Errorf("orders: idempotency check: %w", err)
		}
		if !created {
			slog.InfoContext(ctx, "replaying idempotent order submission",
				"idempotency_key", idempotencyKey, "order_id", existing)
			return existing, nil
		}
		claimed = true
	}

	if err := s.store.Add(ctx, order); err != nil {
		// Release the key so a retry is not answered with the id of an
		// order that was never persisted.
		if claimed {
			if ferr := s.idempotency.Forget(ctx, idempotencyKey); ferr != nil {
				slog.ErrorContext(ctx, "release idempotency key after failed persist",
					"idempotency_key", idempotencyKey, "order_id", order.ID, "error", ferr)
			}
		}
		return "", fmt.Errorf("orders: persist order %q: %w", order.ID, err)
	}

	slog.InfoContext(ctx, "order accepted",
		"order_id", order.ID, "user_id", order.UserID, "positions", len(order.Positions))

	// Detach from the request context so sending the response does not
	// cancel the publish, while tracing metadata still propagates.
	pubCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.publisher.OrderCreated(pubCtx, order); err != nil {
			slog.ErrorContext(pubCtx, "publish order-created failed",
				"order_id", order.ID, "error", err)
			if s.publishFailures != nil {
				s.publishFailures.Add(pubCtx, 1)
			}
		}
	}()

	return order.ID, nil
}
