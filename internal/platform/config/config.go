package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process configuration. Everything comes from the
// environment so main stays lean and deployments stay twelve-factor.
type Config struct {
	Addr string

	// PostgresURL selects the durable store. Empty means in-memory stores,
	// which is only suitable for tests and local runs.
	PostgresURL string

	Redis RedisConfig

	// LockTTL bounds how long an operator may hold a participant before the
	// claim becomes sweepable by the next acquire anywhere in the system.
	LockTTL time.Duration

	JWTSigningKey string

	// OperatorIDs and AdminIDs are the supplied authorization lists. Who is
	// on them is decided elsewhere; this service only enforces membership.
	OperatorIDs []string
	AdminIDs    []string

	// Kafka audit fan-out. Disabled when no brokers are configured.
	KafkaBrokers    []string
	KafkaAuditTopic string

	SearchResultLimit int
}

// RedisConfig holds connection tuning for the optional Redis session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables with local-run defaults.
func FromEnv() Config {
	return Config{
		Addr:        envOr("GATEKEEPER_ADDR", ":8080"),
		PostgresURL: os.Getenv("GATEKEEPER_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("GATEKEEPER_REDIS_URL"),
			PoolSize:     envIntOr("GATEKEEPER_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("GATEKEEPER_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDurationOr("GATEKEEPER_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("GATEKEEPER_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("GATEKEEPER_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		LockTTL:           envDurationOr("GATEKEEPER_LOCK_TTL", 120*time.Second),
		JWTSigningKey:     envOr("GATEKEEPER_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		OperatorIDs:       envList("GATEKEEPER_OPERATOR_IDS"),
		AdminIDs:          envList("GATEKEEPER_ADMIN_IDS"),
		KafkaBrokers:      envList("GATEKEEPER_KAFKA_BROKERS"),
		KafkaAuditTopic:   envOr("GATEKEEPER_KAFKA_AUDIT_TOPIC", "gatekeeper.audit"),
		SearchResultLimit: envIntOr("GATEKEEPER_SEARCH_RESULT_LIMIT", 10),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
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

func envDurationOr(key string, fallback time.Duration) time.Duration {
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
