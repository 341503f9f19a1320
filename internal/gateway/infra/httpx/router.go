package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/storefront/ordermonitor/internal/gateway/infra/httpx/middlewares"
	"github.com/storefront/ordermonitor/internal/pkg/auth"
)

// apiScope is the scope a bearer token must carry to reach any route.
const apiScope = "api"

// NewRouter assembles the gateway's inbound surface. Every route sits
// behind bearer authentication; the websocket handshake may pass the
// token as an access_token query parameter instead of a header.
func NewRouter(handler *Handler, hub http.Handler, verifier auth.Verifier, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", headerIdempotencyKey},
		AllowCredentials: true,
	}))

	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireScope(verifier, apiScope))

		r.Get("/orders/monitor", handler.MonitorOrders)
		r.Get("/orders", handler.ListOrders)
		r.Post("/orders", handler.CreateOrder)
		r.Handle("/notifications/notificationHub", hub)
	})

	return r
}
