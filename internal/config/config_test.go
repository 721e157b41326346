package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/engagement")
	assert.Equal(t, "50051", cfg.GRPC.Port)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "messaging.messages", cfg.Kafka.MessageTopic)
	assert.Equal(t, "engagement-engine", cfg.Kafka.GroupID)
	assert.Equal(t, 24*time.Hour, cfg.Renewal.Window)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DB_NAME", "local")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("LOG_SOURCE", "yes")
	t.Setenv("REDIS_DB", "3")

	cfg := New()

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "local.db", cfg.DB.DSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Log.Source)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("RENEWAL_WINDOW", "tomorrow")
	assert.Equal(t, 24*time.Hour, New().Renewal.Window)
}
