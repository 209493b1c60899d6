package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/disasterline/alert-backend/internal/application"
)

// Config is the resolved runtime configuration.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int32

	JWTSecret       string
	BcryptCost      int
	AllowSignupRole bool

	AlertFeedCacheTTL time.Duration

	KafkaBrokers             []string
	KafkaTopicUserRegistered string
	KafkaTopicUserDeleted    string
	KafkaTopicAlertCreated   string
	KafkaTopicSMSRequested   string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Auth struct {
		BcryptRounds    int   `yaml:"bcrypt_rounds"`
		AllowSignupRole *bool `yaml:"allow_signup_role"`
	} `yaml:"auth"`
	Topics struct {
		UserRegistered string `yaml:"user_registered"`
		UserDeleted    string `yaml:"user_deleted"`
		AlertCreated   string `yaml:"alert_created"`
		SMSRequested   string `yaml:"sms_requested"`
	} `yaml:"topics"`
	Outbox struct {
		PollSeconds     int `yaml:"poll_seconds"`
		BatchSize       int `yaml:"batch_size"`
		ClaimTTLSeconds int `yaml:"claim_ttl_seconds"`
		MaxRetries      int `yaml:"max_retries"`
	} `yaml:"outbox"`
	Cache struct {
		AlertFeedTTLSeconds int `yaml:"alert_feed_ttl_seconds"`
	} `yaml:"cache"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                "disaster-alert-backend",
		HTTPPort:                 5000,
		GRPCPort:                 9090,
		MaxDBConns:               20,
		BcryptCost:               10,
		AllowSignupRole:          true,
		AlertFeedCacheTTL:        30 * time.Second,
		KafkaTopicUserRegistered: "user.registered",
		KafkaTopicUserDeleted:    "user.deleted",
		KafkaTopicAlertCreated:   "disaster.alert.created",
		KafkaTopicSMSRequested:   "disaster.sms.requested",
		OutboxPollInterval:       2 * time.Second,
		OutboxBatchSize:          100,
		OutboxClaimTTL:           30 * time.Second,
		OutboxMaxRetries:         5,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/DATABASE_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.HTTPPort <= 0 || cfg.GRPCPort <= 0 {
		return Config{}, fmt.Errorf("invalid ports http=%d grpc=%d", cfg.HTTPPort, cfg.GRPCPort)
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Auth.BcryptRounds > 0 {
		cfg.BcryptCost = f.Auth.BcryptRounds
	}
	if f.Auth.AllowSignupRole != nil {
		cfg.AllowSignupRole = *f.Auth.AllowSignupRole
	}
	setString(&cfg.KafkaTopicUserRegistered, f.Topics.UserRegistered)
	setString(&cfg.KafkaTopicUserDeleted, f.Topics.UserDeleted)
	setString(&cfg.KafkaTopicAlertCreated, f.Topics.AlertCreated)
	setString(&cfg.KafkaTopicSMSRequested, f.Topics.SMSRequested)
	if f.Outbox.PollSeconds > 0 {
		cfg.OutboxPollInterval = time.Duration(f.Outbox.PollSeconds) * time.Second
	}
	if f.Outbox.BatchSize > 0 {
		cfg.OutboxBatchSize = f.Outbox.BatchSize
	}
	if f.Outbox.ClaimTTLSeconds > 0 {
		cfg.OutboxClaimTTL = time.Duration(f.Outbox.ClaimTTLSeconds) * time.Second
	}
	if f.Outbox.MaxRetries > 0 {
		cfg.OutboxMaxRetries = f.Outbox.MaxRetries
	}
	if f.Cache.AlertFeedTTLSeconds > 0 {
		cfg.AlertFeedCacheTTL = time.Duration(f.Cache.AlertFeedTTLSeconds) * time.Second
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("DATABASE_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicUserRegistered = envOrDefault("KAFKA_TOPIC_USER_REGISTERED", cfg.KafkaTopicUserRegistered)
	cfg.KafkaTopicUserDeleted = envOrDefault("KAFKA_TOPIC_USER_DELETED", cfg.KafkaTopicUserDeleted)
	cfg.KafkaTopicAlertCreated = envOrDefault("KAFKA_TOPIC_ALERT_CREATED", cfg.KafkaTopicAlertCreated)
	cfg.KafkaTopicSMSRequested = envOrDefault("KAFKA_TOPIC_SMS_REQUESTED", cfg.KafkaTopicSMSRequested)

	cfg.HTTPPort = envInt("HTTP_PORT", envInt("PORT", cfg.HTTPPort))
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.AllowSignupRole = envBool("SIGNUP_ALLOW_ROLE", cfg.AllowSignupRole)

	cfg.AlertFeedCacheTTL = time.Duration(envInt("ALERT_FEED_CACHE_TTL_SECONDS", int(cfg.AlertFeedCacheTTL.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
}

// TopicByEvent maps outbox event types to Kafka topics.
func (c Config) TopicByEvent() map[string]string {
	return map[string]string{
		application.EventUserRegistered:    c.KafkaTopicUserRegistered,
		application.EventUserDeleted:       c.KafkaTopicUserDeleted,
		application.EventAlertCreated:      c.KafkaTopicAlertCreated,
		application.EventSMSAlertRequested: c.KafkaTopicSMSRequested,
	}
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "yes":
			return true
		case "no":
			return false
		}
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
