package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceBaseURL     string
	SourceTimeout     time.Duration
	SourceTLSInsecure bool

	RefreshInterval  time.Duration
	RefreshRateLimit float64
	RefreshBurst     int
	GeometryMode     domain.GeometryMode

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka snapshot sink.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string

	// Mapbox geocoding fills in countries whose coordinates did not parse.
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

	sourceTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SOURCE_TIMEOUT", "10s"))
	if err != nil || sourceTimeout <= 0 {
		return nil, errors.New("invalid SOURCE_TIMEOUT")
	}

	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "0s"))
	if err != nil || refreshInterval < 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL")
	}

	rateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("REFRESH_RATE_LIMIT", "1"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid REFRESH_RATE_LIMIT")
	}

	burst, err := strconv.Atoi(sharedcfg.EnvOrDefault("REFRESH_BURST", "3"))
	if err != nil || burst < 1 {
		return nil, errors.New("invalid REFRESH_BURST")
	}

	geometryMode, err := domain.ParseGeometryMode(sharedcfg.EnvOrDefault("GEOMETRY_MODE", string(domain.GeometryRunningAverage)))
	if err != nil {
		return nil, errors.New("invalid GEOMETRY_MODE")
	}

	insecure, err := parseBool("SOURCE_TLS_INSECURE")
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxCacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAPBOX_CACHE_SIZE", "256"))
	if err != nil || mapboxCacheSize < 1 {
		return nil, errors.New("invalid MAPBOX_CACHE_SIZE")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid MAPBOX_ENABLED")
		}
	}

	cfg := &Config{
		SourceBaseURL:     sharedcfg.EnvOrDefault("SOURCE_BASE_URL", "https://localhost:7268/odata"),
		SourceTimeout:     sourceTimeout,
		SourceTLSInsecure: insecure,

		RefreshInterval:  refreshInterval,
		RefreshRateLimit: rateLimit,
		RefreshBurst:     burst,
		GeometryMode:     geometryMode,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "country-case-stats"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	u, err := url.Parse(cfg.SourceBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("SOURCE_BASE_URL must be an absolute URL")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_ENABLED is true")
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseBool(key string) (bool, error) {
	v := sharedcfg.EnvOrDefault(key, "false")
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New("invalid " + key)
	}
	return b, nil
}
