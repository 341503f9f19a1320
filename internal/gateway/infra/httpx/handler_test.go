package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/ordermonitor/internal/gateway/aggregate"
	"github.com/storefront/ordermonitor/internal/gateway/core/domain/entity"
	"github.com/storefront/ordermonitor/internal/gateway/core/ports"
	"github.com/storefront/ordermonitor/internal/orders"
	"github.com/storefront/ordermonitor/internal/pkg/auth"
)

type fakeUpstream struct {
	mu      sync.Mutex
	calls   int
	results map[string]ports.Result
}

func (f *fakeUpstream) Get(_ context.Context, service, _, _ string) (ports.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.results[service], nil
}

type memStore struct {
	mu     sync.Mutex
	orders []entity.Order
}

func (m *memStore) Add(_ context.Context, o entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, o)
	return nil
}

func (m *memStore) List(_ context.Context) ([]entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.Order(nil), m.orders...), nil
}

type nopPublisher struct{}

func (nopPublisher) OrderCreated(context.Context, entity.Order) error { return nil }

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, raw string) (auth.Identity, error) {
	if raw != "valid" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return auth.Identity{UserID: "u1", UserName: "Jamie", Scopes: []string{"api"}, Raw: raw}, nil
}

func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newTestRouter(t *testing.T, up *fakeUpstream) (http.Handler, *memStore) {
	t.Helper()
	store := &memStore{}
	submission := orders.NewService(store, nopPublisher{}, nil)
	handler := NewHandler(aggregate.New(up), submission, store)
	hub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	return NewRouter(handler, hub, stubVerifier{}, nil), store
}

func okUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	return &fakeUpstream{results: map[string]ports.Result{
		"orders": {Outcome: ports.OutcomeOK, Status: 200, Body: jsonBody(t, []entity.Order{
			{ID: "A", UserID: "u1", Positions: []entity.Position{{ProductID: "P1", Quantity: 2}}},
		})},
		"products": {Outcome: ports.OutcomeOK, Status: 200, Body: jsonBody(t, []entity.Product{
			{ID: "P1", Name: "Widget", Description: "d", Price: 9.99},
		})},
	}}
}

func TestMonitor_Success(t *testing.T) {
	router, _ := newTestRouter(t, okUpstream(t))

	req := httptest.NewRequest(http.MethodGet, "/orders/monitor", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{
		"id": "A",
		"userId": "u1",
		"positions": [{
			"productId": "P1",
			"productName": "Widget",
			"productDescription": "d",
			"productPrice": 9.99,
			"quantity": 2
		}]
	}]`, rec.Body.String())
}

func TestMonitor_NoCredentialSkipsUpstream(t *testing.T) {
	up := okUpstream(t)
	router, _ := newTestRouter(t, up)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/monitor", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, up.calls)
}

func TestMonitor_UpstreamUnauthorized(t *testing.T) {
	up := okUpstream(t)
	up.results["products"] = ports.Result{Outcome: ports.OutcomeUnauthorized, Status: 401}
	router, _ := newTestRouter(t, up)

	req := httptest.NewRequest(http.MethodGet, "/orders/monitor", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMonitor_UpstreamFailure(t *testing.T) {
	up := okUpstream(t)
	up.results["orders"] = ports.Result{Outcome: ports.OutcomeFailed, Status: 503}
	router, _ := newTestRouter(t, up)

	req := httptest.NewRequest(http.MethodGet, "/orders/monitor", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateOrder_Accepted(t *testing.T) {
	router, store := newTestRouter(t, okUpstream(t))

	body := `{"positions":[{"productId":"P1","quantity":2}]}`

	var first, second OrderAcceptedResponse
	for i, out := range []*OrderAcceptedResponse{&first, &second} {
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer valid")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusAccepted, rec.Code, "request %d", i)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
		require.NotEmpty(t, out.OrderID)
	}

	// Each call yields a distinct server-generated id.
	assert.NotEqual(t, first.OrderID, second.OrderID)

	persisted, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	// Identity comes from the token, not the body.
	assert.Equal(t, "u1", persisted[0].UserID)
	assert.Equal(t, "Jamie", persisted[0].UserName)
}

func TestCreateOrder_InvalidJSON(t *testing.T) {
	router, _ := newTestRouter(t, okUpstream(t))

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_EmptyPositions(t *testing.T) {
	router, _ := newTestRouter(t, okUpstream(t))

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"positions":[]}`))
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_ReturnsPersistedOrders(t *testing.T) {
	router, _ := newTestRouter(t, okUpstream(t))

	// Empty store answers with an empty array, not null.
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	// Submit one order, then list it back.
	post := httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"positions":[{"productId":"P1","quantity":1}]}`))
	post.Header.Set("Authorization", "Bearer valid")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, post)
	require.Equal(t, http.StatusAccepted, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []entity.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].UserID)
	require.Len(t, got[0].Positions, 1)
	assert.Equal(t, "P1", got[0].Positions[0].ProductID)
}
