package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storefront/ordermonitor/internal/gateway/aggregate"
	"github.com/storefront/ordermonitor/internal/gateway/core/domain/entity"
	"github.com/storefront/ordermonitor/internal/gateway/core/ports"
	"github.com/storefront/ordermonitor/internal/gateway/infra/httpx/middlewares"
	"github.com/storefront/ordermonitor/internal/orders"
)

// headerIdempotencyKey lets clients replay POST /orders safely.
const headerIdempotencyKey = "X-Idempotency-Key"

// Handler binds authenticated requests to the aggregator and the
// submission service.
type Handler struct {
	aggregator *aggregate.Aggregator
	submission *orders.Service
	store      ports.OrderStore
}

// NewHandler wires the handler with its collaborators.
func NewHandler(aggregator *aggregate.Aggregator, submission *orders.Service, store ports.OrderStore) *Handler {
	return &Handler{aggregator: aggregator, submission: submission, store: store}
}

// MonitorOrders serves GET /orders/monitor: fan out to both backends,
// join, and answer with exactly one of 200, 401 or 500. No partial
// payload is ever returned.
func (h *Handler) MonitorOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := middlewares.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	views, err := h.aggregator.Monitor(r.Context(), identity.Raw)
	switch {
	case errors.Is(err, aggregate.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "upstream_unauthorized", "")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "monitor composition failed", "error", err)
		writeError(w, http.StatusInternalServerError, "upstream_failure", "")
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// CreateOrder serves POST /orders and answers 202 with the generated
// order id once the order is persisted.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := middlewares.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	positions := make([]entity.Position, 0, len(req.Positions))
	for _, p := range req.Positions {
		positions = append(positions, entity.Position{ProductID: p.ProductID, Quantity: p.Quantity})
	}

	orderID, err := h.submission.Create(r.Context(), identity, r.Header.Get(headerIdempotencyKey), positions)
	switch {
	case errors.Is(err, orders.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, "invalid_order", err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "order submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "submission_failed", "")
		return
	}

	writeJSON(w, http.StatusAccepted, OrderAcceptedResponse{OrderID: orderID})
}

// ListOrders serves GET /orders from the locally persisted order list.
// The gateway hosts the Orders submission path, so in direct mode this
// is also the endpoint the monitor's own upstream call lands on.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := middlewares.IdentityFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	list, err := h.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list orders failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "")
		return
	}
	if list == nil {
		list = []entity.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
