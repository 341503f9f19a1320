package ports

import (
	"context"

	"github.com/storefront/ordermonitor/internal/gateway/core/domain/entity"
)

// OrderStore persists accepted orders.
type OrderStore interface {
	Add(ctx context.Context, order entity.Order) error
	List(ctx context.Context) ([]entity.Order, error)
}

// EventPublisher announces a freshly persisted order to the
// order-created topic. Publishing is fire-and-forget from the
// submission endpoint's point of view.
type EventPublisher interface {
	OrderCreated(ctx context.Context, order entity.Order) error
}

// Notifier pushes a processed-order notification to every connected
// client session.
type Notifier interface {
	OrderProcessed(orderID string)
}
