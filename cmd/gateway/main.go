package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/storefront/ordermonitor/internal/config"
	"github.com/storefront/ordermonitor/internal/gateway/aggregate"
	"github.com/storefront/ordermonitor/internal/gateway/infra/httpx"
	"github.com/storefront/ordermonitor/internal/gateway/infra/upstream"
	"github.com/storefront/ordermonitor/internal/notify"
	"github.com/storefront/ordermonitor/internal/orders"
	orderskafka "github.com/storefront/ordermonitor/internal/orders/kafka"
	orderssqlite "github.com/storefront/ordermonitor/internal/orders/sqlite"
	"github.com/storefront/ordermonitor/internal/pkg/auth"
	"github.com/storefront/ordermonitor/internal/pkg/cache"
	"github.com/storefront/ordermonitor/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.SetupTracer(ctx, "gateway")
	if err != nil {
		slog.Error("set up tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("shut down tracer", "error", err)
		}
	}()

	resolver := upstream.NewResolver(cfg.SidecarPort, cfg.DirectPort)
	slog.Info("upstream resolution configured",
		"sidecar", resolver.Sidecar(), "sidecar_port", cfg.SidecarPort, "direct_port", cfg.DirectPort)

	client := upstream.NewClient(resolver, cfg.UpstreamTimeout)
	aggregator := aggregate.New(client)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer rdb.Close()
	idempotency := cache.NewRedisStore(rdb, "gateway", 24*time.Hour)

	store, err := orderssqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("open order store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	publisher := orderskafka.NewPublisher(cfg.KafkaBrokers, cfg.OrderCreatedTopic)
	defer publisher.Close()
	submission := orders.NewService(store, publisher, idempotency)

	hub := notify.NewHub(cfg.CORSOrigins)
	go hub.Run(ctx)

	relay := notify.NewRelay(cfg.KafkaBrokers, cfg.OrderProcessedTopic, cfg.KafkaGroupID, hub)
	defer relay.Close()
	go relay.Run(ctx)

	verifier := auth.NewHMACVerifier(cfg.OIDCIssuer, cfg.OIDCAudience, cfg.OIDCSecret)
	handler := httpx.NewHandler(aggregator, submission, store)
	router := httpx.NewRouter(handler, hub, verifier, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(router, "gateway"),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown", "error", err)
		}
	}()

	slog.Info("gateway listening", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}
