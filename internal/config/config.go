package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
)

// Config holds runtime configuration for the score service.
type Config struct {
	HTTPAddr string

	LogLevel  string
	LogFormat string

	RPCCallTimeout time.Duration
	NetworksFile   string
	Networks       []domain.Network

	AllowedOrigins []string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ScoreCacheTTL    time.Duration
	ScoreCachePrefix string

	KafkaBrokers          []string
	KafkaTopicScoreEvents string
}

// CacheEnabled reports whether scores are cached in Redis between requests.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != "" && c.ScoreCacheTTL > 0
}

// EventsEnabled reports whether score events are published to Kafka.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

var defaultAllowedOrigins = "https://galxe.com,https://app.galxe.com,https://dashboard.galxe.com"

// envOrDefault returns the value of an env var or a default.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}

	return def, nil
}

func envDurationOrDefault(key string, def time.Duration) (time.Duration, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}
	return def, nil
}

// AllowedOrigins reads the CORS allow-list on its own; it needs no other settings.
func AllowedOrigins() []string {
	return envCSVOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins)
}

// envCSVOrDefault splits a comma separated list, dropping empty entries.
func envCSVOrDefault(key, def string) []string {
	raw := envOrDefault(key, def)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig loads configuration from environment variables. The network
// table comes from NETWORKS_FILE when set, else the built-in defaults.
func LoadConfig() (Config, error) {
	redisDB, err := envIntOrDefault("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	callTimeout, err := envDurationOrDefault("RPC_CALL_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := envDurationOrDefault("SCORE_CACHE_TTL", 0)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr: envOrDefault("HTTP_ADDR", ":8080"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		RPCCallTimeout: callTimeout,
		NetworksFile:   os.Getenv("NETWORKS_FILE"),

		AllowedOrigins: AllowedOrigins(),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		ScoreCacheTTL:    cacheTTL,
		ScoreCachePrefix: envOrDefault("SCORE_CACHE_PREFIX", "galxe:score"),

		KafkaBrokers:          envCSVOrDefault("KAFKA_BROKERS", ""),
		KafkaTopicScoreEvents: envOrDefault("KAFKA_TOPIC_SCORE_EVENTS", "score_events"),
	}

	if cfg.NetworksFile != "" {
		cfg.Networks, err = LoadNetworks(cfg.NetworksFile)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg.Networks = DefaultNetworks()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail on the first request.
func (c Config) Validate() error {
	var errs []error
	if c.RPCCallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RPC_CALL_TIMEOUT must be positive, got %s", c.RPCCallTimeout))
	}
	if c.ScoreCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("SCORE_CACHE_TTL must not be negative, got %s", c.ScoreCacheTTL))
	}
	if err := ValidateNetworks(c.Networks); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
