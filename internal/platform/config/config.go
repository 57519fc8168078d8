package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Empty infrastructure URLs mean
// the corresponding in-memory or logging fallback is used, so the binary runs
// with zero external services in development.
type Config struct {
	Addr          string
	JWTSigningKey string

	PostgresDSN   string
	MigrationsDir string

	RedisURL string

	KafkaBrokers []string
	KafkaTopic   string

	AMQPURL    string
	EmailQueue string

	ReminderInterval    time.Duration
	ReminderItemTimeout time.Duration
	ReminderConcurrency int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:                getEnv("CLEARWAY_ADDR", ":8080"),
		JWTSigningKey:       getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "db/migrations"),
		RedisURL:            os.Getenv("REDIS_URL"),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "clearway.lifecycle"),
		AMQPURL:             os.Getenv("AMQP_URL"),
		EmailQueue:          getEnv("EMAIL_QUEUE", "email_jobs"),
		ReminderInterval:    getDuration("REMINDER_INTERVAL", 5*time.Minute),
		ReminderItemTimeout: getDuration("REMINDER_ITEM_TIMEOUT", 10*time.Second),
		ReminderConcurrency: 8,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
