package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process configuration. All knobs come from the environment
// so main stays lean; unset infrastructure URLs select in-memory fallbacks.
type Config struct {
	Addr        string
	MetricsAddr string

	DatabaseURL string
	RedisURL    string

	KafkaSeeds      []string
	KafkaAuditTopic string

	// Issuer is the iss claim on identity tokens. PrivateKeyPEM signs them;
	// when empty an ephemeral dev key is generated at startup. PublicKeyPEM is
	// the counterpart handed to resource servers out of band.
	Issuer        string
	PrivateKeyPEM string
	PublicKeyPEM  string

	GrantTTL       time.Duration
	TransactionTTL time.Duration
	SessionTTL     time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:            envOr("ECOTRACE_ADDR", ":8080"),
		MetricsAddr:     envOr("ECOTRACE_METRICS_ADDR", ":9090"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaSeeds:      splitList(os.Getenv("KAFKA_SEEDS")),
		KafkaAuditTopic: envOr("KAFKA_AUDIT_TOPIC", "ecotrace.audit"),
		Issuer:          envOr("OIDC_ISSUER", "ecotrace"),
		PrivateKeyPEM:   os.Getenv("OIDC_PRIVATE_KEY"),
		PublicKeyPEM:    os.Getenv("OIDC_PUBLIC_KEY"),
		GrantTTL:        durationOr("GRANT_TTL", 10*time.Minute),
		TransactionTTL:  durationOr("TRANSACTION_TTL", 5*time.Minute),
		SessionTTL:      durationOr("SESSION_TTL", 24*time.Hour),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
