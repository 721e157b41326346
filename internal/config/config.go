package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Admin struct {
		Addr string
	}

	Auth struct {
		JWTSecret string
		Issuer    string
		TokenTTL  time.Duration
	}

	Kafka struct {
		Brokers []string
		Topic   string
		// MessageTopic carries message.sent events from the messaging
		// service; each one earns the sender a message reward.
		MessageTopic string
		GroupID      string
	}

	// Staking values are kept as raw strings here; staking.ParseConfig
	// validates them once at boot.
	Staking struct {
		MinStake  string
		MaxStake  string
		Durations string
		AprBps    string
	}

	Plans struct {
		BasicPrice   string
		PremiumPrice string
		VIPPrice     string
	}

	Rewards struct {
		Match         string
		Message       string
		ProfileUpdate string
		DailyCap      string
	}

	Renewal struct {
		Schedule string
		Window   time.Duration
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "engagement_engine")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	}
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "engagement")

		if cfg.DB.Driver == "sqlite" {
			cfg.DB.DSN = cfg.DB.Name + ".db"
		} else {
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Admin HTTP (metrics, health)
	cfg.Admin.Addr = getEnvDefault("ADMIN_ADDR", "127.0.0.1:9090")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "dev-secret-change-me")
	cfg.Auth.Issuer = getEnvDefault("JWT_ISSUER", "identity")
	cfg.Auth.TokenTTL = getDurationDefault("JWT_TTL", 24*time.Hour)

	// Kafka (empty brokers → events are only logged)
	cfg.Kafka.Brokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.Kafka.Topic = getEnvDefault("KAFKA_TOPIC", "engagement.matches")
	cfg.Kafka.MessageTopic = getEnvDefault("KAFKA_MESSAGE_TOPIC", "messaging.messages")
	cfg.Kafka.GroupID = getEnvDefault("KAFKA_GROUP_ID", "engagement-engine")

	// Staking: 30d/90d/180d/365d at 5%/8%/12%/20% APR
	cfg.Staking.MinStake = getEnvDefault("STAKING_MIN", "100")
	cfg.Staking.MaxStake = getEnvDefault("STAKING_MAX", "1000000000")
	cfg.Staking.Durations = getEnvDefault("STAKING_DURATIONS", "720h,2160h,4320h,8760h")
	cfg.Staking.AprBps = getEnvDefault("STAKING_APR_BPS", "500,800,1200,2000")

	// Subscription plans (token units per month)
	cfg.Plans.BasicPrice = getEnvDefault("PLAN_BASIC_PRICE", "100")
	cfg.Plans.PremiumPrice = getEnvDefault("PLAN_PREMIUM_PRICE", "250")
	cfg.Plans.VIPPrice = getEnvDefault("PLAN_VIP_PRICE", "500")

	// Rewards
	cfg.Rewards.Match = getEnvDefault("REWARD_MATCH", "10")
	cfg.Rewards.Message = getEnvDefault("REWARD_MESSAGE", "1")
	cfg.Rewards.ProfileUpdate = getEnvDefault("REWARD_PROFILE_UPDATE", "5")
	cfg.Rewards.DailyCap = getEnvDefault("REWARD_DAILY_CAP", "100")

	// Auto-renewal
	cfg.Renewal.Schedule = getEnvDefault("RENEWAL_SCHEDULE", "@hourly")
	cfg.Renewal.Window = getDurationDefault("RENEWAL_WINDOW", 24*time.Hour)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil {
		return d
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
