package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OIDC_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Zero(t, cfg.SidecarPort)
	assert.Equal(t, 8080, cfg.DirectPort)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "orders", cfg.OrderCreatedTopic)
	assert.Equal(t, "orders-processed", cfg.OrderProcessedTopic)
}

func TestLoad_SidecarPort(t *testing.T) {
	t.Setenv("OIDC_SECRET", "s3cret")
	t.Setenv("DAPR_HTTP_PORT", "3500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3500, cfg.SidecarPort)
}

func TestLoad_InvalidSidecarPort(t *testing.T) {
	t.Setenv("OIDC_SECRET", "s3cret")
	t.Setenv("DAPR_HTTP_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("OIDC_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_CSVLists(t *testing.T) {
	t.Setenv("OIDC_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("OIDC_SECRET", "s3cret")
	t.Setenv("UPSTREAM_TIMEOUT_SEC", "0")

	_, err := Load()
	assert.Error(t, err)
}
