package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the gateway. Everything is
// injected through environment variables so the same binary runs unchanged
// in local, compose, and sidecar-enabled topologies.
type Config struct {
	HTTPAddr string

	// SidecarPort is the local service-invocation proxy port (Dapr style).
	// Zero disables sidecar routing: upstream calls then go to
	// http://localhost:<DirectPort>/<service> instead.
	SidecarPort int
	DirectPort  int

	// UpstreamTimeout bounds each backend call issued by the aggregator.
	UpstreamTimeout time.Duration

	// OIDC bearer validation for scope "api".
	OIDCIssuer   string
	OIDCAudience string
	OIDCSecret   string

	CORSOrigins []string

	DBPath string

	RedisAddr string
	RedisDB   int

	KafkaBrokers        []string
	OrderCreatedTopic   string
	OrderProcessedTopic string
	KafkaGroupID        string
}

// Load reads and validates configuration, falling back to local-dev defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		UpstreamTimeout:     5 * time.Second,
		OIDCIssuer:          getEnv("OIDC_ISSUER", "http://localhost:5009"),
		OIDCAudience:        getEnv("OIDC_AUDIENCE", "api"),
		OIDCSecret:          getEnv("OIDC_SECRET", ""),
		CORSOrigins:         splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5005")),
		DBPath:              getEnv("DB_PATH", "ordermonitor.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:        splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		OrderCreatedTopic:   getEnv("ORDER_CREATED_TOPIC", "orders"),
		OrderProcessedTopic: getEnv("ORDER_PROCESSED_TOPIC", "orders-processed"),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "gateway-notifications"),
	}

	sidecarPort, err := getEnvInt("DAPR_HTTP_PORT", 0)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DAPR_HTTP_PORT: %w", err)
	}
	if sidecarPort < 0 {
		return Config{}, fmt.Errorf("DAPR_HTTP_PORT must be >= 0")
	}
	cfg.SidecarPort = sidecarPort

	directPort, err := getEnvInt("DIRECT_PORT", portOf(cfg.HTTPAddr))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DIRECT_PORT: %w", err)
	}
	cfg.DirectPort = directPort

	timeoutSec, err := getEnvInt("UPSTREAM_TIMEOUT_SEC", int(cfg.UpstreamTimeout.Seconds()))
	if err != nil {
		return Config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT_SEC: %w", err)
	}
	if timeoutSec <= 0 {
		return Config{}, fmt.Errorf("UPSTREAM_TIMEOUT_SEC must be > 0")
	}
	cfg.UpstreamTimeout = time.Duration(timeoutSec) * time.Second

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	if len(cfg.KafkaBrokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.OrderCreatedTopic == "" {
		return Config{}, fmt.Errorf("ORDER_CREATED_TOPIC must not be empty")
	}
	if cfg.OrderProcessedTopic == "" {
		return Config{}, fmt.Errorf("ORDER_PROCESSED_TOPIC must not be empty")
	}
	if cfg.OIDCSecret == "" {
		return Config{}, fmt.Errorf("OIDC_SECRET must not be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// portOf extracts the numeric port from an addr like ":8080" or "0.0.0.0:8080".
func portOf(addr string) int {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return 0
	}
	p, err := strconv.Atoi(addr[idx+1:])
	if err != nil {
		return 0
	}
	return p
}
