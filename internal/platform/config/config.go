// Package config centralizes environment-driven configuration so main stays
// lean. Every knob has a development default; production deployments override
// through the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Addr string

	JWT       JWTConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	PublicAPI PublicAPIConfig
	Bootstrap BootstrapConfig
}

// JWTConfig drives access token signing and validation.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
}

// PostgresConfig selects the persistence backend. An empty URL keeps every
// store in memory, which is the development default.
type PostgresConfig struct {
	URL string
}

// RedisConfig configures the shared Redis client. An empty URL disables
// Redis; the allocator and rate limiter fall back to their local variants.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit event sink. No brokers means no
// sink; audit events still land in the audit store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// PublicAPIConfig tunes the unauthenticated verification endpoint.
type PublicAPIConfig struct {
	RateLimit       int
	RateLimitWindow time.Duration
}

// BootstrapConfig seeds the first regulator admin on an empty directory.
type BootstrapConfig struct {
	AdminName  string
	AdminEmail string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr: envString("SANAD_ADDR", ":8080"),
		JWT: JWTConfig{
			// Development default only; override in production.
			SigningKey: envString("SANAD_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envString("SANAD_JWT_ISSUER", "sanad"),
			Audience:   envString("SANAD_JWT_AUDIENCE", "sanad-api"),
			AccessTTL:  envDuration("SANAD_JWT_ACCESS_TTL", 8*time.Hour),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("SANAD_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("SANAD_REDIS_URL"),
			PoolSize:     envInt("SANAD_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("SANAD_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("SANAD_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("SANAD_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("SANAD_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: envList("SANAD_KAFKA_BROKERS"),
			Topic:   envString("SANAD_KAFKA_TOPIC", "sanad.audit"),
		},
		PublicAPI: PublicAPIConfig{
			RateLimit:       envInt("SANAD_PUBLIC_VERIFY_LIMIT", 30),
			RateLimitWindow: envDuration("SANAD_PUBLIC_VERIFY_WINDOW", time.Minute),
		},
		Bootstrap: BootstrapConfig{
			AdminName:  envString("SANAD_BOOTSTRAP_ADMIN_NAME", "HEC Administrator"),
			AdminEmail: envString("SANAD_BOOTSTRAP_ADMIN_EMAIL", "admin@hec.gov.pk"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
