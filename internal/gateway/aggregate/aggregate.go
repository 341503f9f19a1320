// Package aggregate composes the Orders and Products backends into the
// order monitor view. It fans out both calls concurrently, classifies
// the combined outcome, and performs an order-preserving left outer
// join of positions against the product snapshot.
package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/storefront/ordermonitor/internal/gateway/core/domain/entity"
	"github.com/storefront/ordermonitor/internal/gateway/core/ports"
)

var (
	// ErrUnauthorized means at least one backend rejected the propagated
	// credential. It takes priority over ErrUpstream so an auth problem
	// is never masked as a generic failure.
	ErrUnauthorized = errors.New("aggregate: upstream unauthorized")

	// ErrUpstream covers every other backend problem: non-2xx status,
	// transport error, or an undecodable success body. Callers cannot
	// tell which backend failed from this error alone.
	ErrUpstream = errors.New("aggregate: upstream failure")
)

const (
	ordersService   = "orders"
	productsService = "products"
)

// Aggregator orchestrates the two backend calls behind GET /orders/monitor.
type Aggregator struct {
	client       ports.Upstream
	compositions metric.Int64Counter
}

// New builds an Aggregator on top of the shared upstream client.
func New(client ports.Upstream) *Aggregator {
	compositions, err := otel.Meter("gateway").Int64Counter("gateway.compositions",
		metric.WithDescription("Completed monitor compositions"))
	if err != nil {
		// The noop meter never errors; a misconfigured SDK should not
		// take the request path down.
		slog.Error("aggregate: create compositions counter", "error", err)
	}
	return &Aggregator{client: client, compositions: compositions}
}

// Monitor fetches orders and products with the caller's bearer token,
// joins them, and returns one view per order in upstream order.
// The two calls are issued together and always both awaited; cancelling
// ctx cancels both in-flight calls.
func (a *Aggregator) Monitor(ctx context.Context, bearer string) ([]entity.OrderMonitorView, error) {
	var ordersRes, productsRes ports.Result
	var ordersErr, productsErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ordersRes, ordersErr = a.client.Get(gctx, ordersService, "orders", bearer)
		return nil
	})
	g.Go(func() error {
		productsRes, productsErr = a.client.Get(gctx, productsService, "products", bearer)
		return nil
	})
	// Join point: both calls have completed. Errors are carried in the
	// captured variables, never through the group, so one outcome can
	// not short-circuit the other.
	_ = g.Wait()

	if ordersRes.Outcome == ports.OutcomeUnauthorized || productsRes.Outcome == ports.OutcomeUnauthorized {
		slog.WarnContext(ctx, "backend rejected propagated credential",
			"orders_url", ordersRes.URL, "orders_status", ordersRes.Status,
			"products_url", productsRes.URL, "products_status", productsRes.Status)
		return nil, ErrUnauthorized
	}
	if ordersErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, ordersErr)
	}
	if productsErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, productsErr)
	}
	if ordersRes.Outcome != ports.OutcomeOK || productsRes.Outcome != ports.OutcomeOK {
		slog.WarnContext(ctx, "non-successful status from backend",
			"orders_url", ordersRes.URL, "orders_status", ordersRes.Status,
			"products_url", productsRes.URL, "products_status", productsRes.Status)
		return nil, fmt.Errorf("%w: orders=%d products=%d", ErrUpstream, ordersRes.Status, productsRes.Status)
	}

	var orders []entity.Order
	if err := json.Unmarshal(ordersRes.Body, &orders); err != nil {
		return nil, fmt.Errorf("%w: decode orders: %v", ErrUpstream, err)
	}
	var products []entity.Product
	if err := json.Unmarshal(productsRes.Body, &products); err != nil {
		return nil, fmt.Errorf("%w: decode products: %v", ErrUpstream, err)
	}

	views := Join(ctx, orders, products)

	if a.compositions != nil {
		a.compositions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "composition")))
	}
	return views, nil
}

// Join denormalizes orders against the product snapshot. Output length
// always equals len(orders) and preserves their order. A position whose
// product is unknown keeps its productId and quantity and leaves the
// product fields at zero values; it is never dropped.
func Join(ctx context.Context, orders []entity.Order, products []entity.Product) []entity.OrderMonitorView {
	// First occurrence wins on duplicate product ids.
	index := make(map[string]entity.Product, len(products))
	for _, p := range products {
		if _, ok := index[p.ID]; !ok {
			index[p.ID] = p
		}
	}

	views := make([]entity.OrderMonitorView, 0, len(orders))
	for _, o := range orders {
		view := entity.OrderMonitorView{
			ID:        o.ID,
			UserID:    o.UserID,
			Positions: make([]entity.PositionView, 0, len(o.Positions)),
		}
		for _, pos := range o.Positions {
			pv := entity.PositionView{
				ProductID: pos.ProductID,
				Quantity:  pos.Quantity,
			}
			if p, ok := index[pos.ProductID]; ok {
				pv.ProductName = p.Name
				pv.ProductDescription = p.Description
				pv.ProductPrice = p.Price
			} else {
				slog.DebugContext(ctx, "position references unknown product",
					"order_id", o.ID, "product_id", pos.ProductID)
			}
			view.Positions = append(view.Positions, pv)
		}
		views = append(views, view)
	}
	return views
}
