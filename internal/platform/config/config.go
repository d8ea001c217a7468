package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Built from environment
// variables so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	// AdminPrincipal seeds the registry admin on first boot.
	AdminPrincipal string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// PostgresConfig selects the persistent backend. An empty DSN keeps the
// registry on the in-memory store.
type PostgresConfig struct {
	DSN string
}

// RedisConfig enables the visibility cache. An empty URL disables it.
type RedisConfig struct {
	URL           string
	VisibilityTTL time.Duration
	PoolSize      int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// KafkaConfig enables the audit stream. No brokers means audit events stay
// on the in-memory sink.
type KafkaConfig struct {
	Brokers     []string
	AuditTopic  string
	AuditBuffer int
}

// FromEnv builds the configuration from environment variables, with defaults
// suitable for local development.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("STRATOLEDGER_ADDR", ":8080"),
		JWTSigningKey:  envOr("STRATOLEDGER_JWT_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      envOr("STRATOLEDGER_JWT_ISSUER", "stratoledger"),
		AdminPrincipal: envOr("STRATOLEDGER_ADMIN", "registry-admin"),
		Postgres: PostgresConfig{
			DSN: os.Getenv("STRATOLEDGER_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:           os.Getenv("STRATOLEDGER_REDIS_URL"),
			VisibilityTTL: envDurationOr("STRATOLEDGER_VISIBILITY_TTL", 5*time.Minute),
			PoolSize:      envIntOr("STRATOLEDGER_REDIS_POOL", 10),
			DialTimeout:   5 * time.Second,
			ReadTimeout:   3 * time.Second,
			WriteTimeout:  3 * time.Second,
		},
		Kafka: KafkaConfig{
			AuditTopic:  envOr("STRATOLEDGER_AUDIT_TOPIC", "stratoledger.audit"),
			AuditBuffer: envIntOr("STRATOLEDGER_AUDIT_BUFFER", 1024),
		},
	}
	if brokers := os.Getenv("STRATOLEDGER_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
