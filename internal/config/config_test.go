package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"world", "us", "wa", "wa-monitor"}, cfg.Dashboards)
	assert.True(t, cfg.JitterEnabled)
	assert.Zero(t, cfg.JitterInterval)
	assert.Zero(t, cfg.RNGSeed)
	assert.False(t, cfg.LiveDataEnabled)
	assert.Equal(t, "https://api.open-meteo.com", cfg.OpenMeteoURL)
	assert.Equal(t, "https://waterservices.usgs.gov", cfg.USGSURL)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 2.0, cfg.ProviderRateLimit)
	assert.Equal(t, SinkNone, cfg.SnapshotSink)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "flood-dashboard-snapshots", cfg.KafkaSnapshotTopic)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Zero(t, cfg.RedisDB)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DASHBOARDS", " wa , wa-monitor ,")
	t.Setenv("JITTER_ENABLED", "false")
	t.Setenv("JITTER_INTERVAL", "5s")
	t.Setenv("RNG_SEED", "42")
	t.Setenv("LIVE_DATA_ENABLED", "true")
	t.Setenv("OPEN_METEO_URL", "http://meteo.local/")
	t.Setenv("USGS_URL", "http://usgs.local")
	t.Setenv("PROVIDER_TIMEOUT", "2s")
	t.Setenv("PROVIDER_RATE_LIMIT", "0.5")
	t.Setenv("SNAPSHOT_SINK", "Kafka")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SNAPSHOT_TOPIC", "snapshots")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"wa", "wa-monitor"}, cfg.Dashboards)
	assert.False(t, cfg.JitterEnabled)
	assert.Equal(t, 5*time.Second, cfg.JitterInterval)
	assert.Equal(t, uint64(42), cfg.RNGSeed)
	assert.True(t, cfg.LiveDataEnabled)
	assert.Equal(t, "http://meteo.local", cfg.OpenMeteoURL)
	assert.Equal(t, "http://usgs.local", cfg.USGSURL)
	assert.Equal(t, 2*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 0.5, cfg.ProviderRateLimit)
	assert.Equal(t, SinkKafka, cfg.SnapshotSink)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "snapshots", cfg.KafkaSnapshotTopic)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"MAPBOX_TIMEOUT", "bad"},
		{"PROVIDER_TIMEOUT", "-1s"},
		{"JITTER_INTERVAL", "0s"},
		{"PROVIDER_RATE_LIMIT", "zero"},
		{"RNG_SEED", "-4"},
		{"REDIS_DB", "x"},
		{"JITTER_ENABLED", "maybe"},
		{"LIVE_DATA_ENABLED", "sometimes"},
		{"SNAPSHOT_SINK", "s3"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_EmptyDashboards(t *testing.T) {
	t.Setenv("DASHBOARDS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DASHBOARDS")
}

func TestLoad_RedisSink(t *testing.T) {
	t.Setenv("SNAPSHOT_SINK", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SinkRedis, cfg.SnapshotSink)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}
