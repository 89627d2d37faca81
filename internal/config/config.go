package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Snapshot sinks.
const (
	SinkNone  = "none"
	SinkKafka = "kafka"
	SinkRedis = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	Dashboards     []string
	JitterEnabled  bool
	JitterInterval time.Duration // 0 keeps each dashboard's own interval
	RNGSeed        uint64        // 0 seeds from entropy

	// Live providers for the monitoring dashboard.
	LiveDataEnabled   bool
	OpenMeteoURL      string
	USGSURL           string
	ProviderTimeout   time.Duration
	ProviderRateLimit float64

	SnapshotSink       string
	KafkaBrokers       []string
	KafkaSnapshotTopic string
	RedisAddr          string
	RedisDB            int

	// Mapbox click geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	providerTimeout, err := parsePositiveDuration("PROVIDER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	var jitterInterval time.Duration
	if v := os.Getenv("JITTER_INTERVAL"); v != "" {
		jitterInterval, err = time.ParseDuration(v)
		if err != nil || jitterInterval <= 0 {
			return nil, errors.New("invalid JITTER_INTERVAL")
		}
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("PROVIDER_RATE_LIMIT", "2"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid PROVIDER_RATE_LIMIT")
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("RNG_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid RNG_SEED")
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	jitterEnabled, err := parseBool("JITTER_ENABLED", true)
	if err != nil {
		return nil, err
	}
	liveEnabled, err := parseBool("LIVE_DATA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Dashboards:     parseList(sharedcfg.EnvOrDefault("DASHBOARDS", "world,us,wa,wa-monitor")),
		JitterEnabled:  jitterEnabled,
		JitterInterval: jitterInterval,
		RNGSeed:        seed,

		LiveDataEnabled:   liveEnabled,
		OpenMeteoURL:      strings.TrimRight(sharedcfg.EnvOrDefault("OPEN_METEO_URL", "https://api.open-meteo.com"), "/"),
		USGSURL:           strings.TrimRight(sharedcfg.EnvOrDefault("USGS_URL", "https://waterservices.usgs.gov"), "/"),
		ProviderTimeout:   providerTimeout,
		ProviderRateLimit: rateLimit,

		SnapshotSink:       strings.ToLower(sharedcfg.EnvOrDefault("SNAPSHOT_SINK", SinkNone)),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "flood-dashboard-snapshots"),
		RedisAddr:          sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisDB:            redisDB,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if len(cfg.Dashboards) == 0 {
		return nil, errors.New("DASHBOARDS is required")
	}
	switch cfg.SnapshotSink {
	case SinkNone:
	case SinkKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when SNAPSHOT_SINK is kafka")
		}
		if cfg.KafkaSnapshotTopic == "" {
			return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when SNAPSHOT_SINK is kafka")
		}
	case SinkRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("REDIS_ADDR is required when SNAPSHOT_SINK is redis")
		}
	default:
		return nil, fmt.Errorf("invalid SNAPSHOT_SINK %q", cfg.SnapshotSink)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
