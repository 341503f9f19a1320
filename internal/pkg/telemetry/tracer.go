// Package telemetry wires the OpenTelemetry SDK to an OTLP gRPC
// exporter and installs a trace-aware slog logger.
//
// Call SetupTracer once at the top of main(), defer the returned
// shutdown function, and every span created in the process is exported
// automatically.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ShutdownFunc must be called before the process exits to flush any
// buffered spans and close the exporter connection cleanly.
type ShutdownFunc func(ctx context.Context) error

// SetupTracer initialises the global TracerProvider and propagators for
// the given service name.
//
// The OTLP endpoint is read from OTEL_EXPORTER_OTLP_ENDPOINT
// (default "localhost:4317"), matching the standard OTel convention so
// no code change is needed between environments.
func SetupTracer(ctx context.Context, serviceName string) (ShutdownFunc, error) {
	endpoint := stripScheme(getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"))

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial collector at %s: %w", endpoint, err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(getEnv("OTEL_RESOURCE_ATTRIBUTES_ENV", "local")),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	// W3C TraceContext + Baggage: this is what makes trace_id flow
	// across the gateway's outbound calls via otelhttp.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("telemetry: shut down TracerProvider: %w", err)
		}
		return conn.Close()
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func stripScheme(endpoint string) string {
	for _, prefix := range []string{"http://", "https://"} {
		endpoint = strings.TrimPrefix(endpoint, prefix)
	}
	return endpoint
}
