package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID            string
	HTTPPort             int
	GRPCPort             int
	DatabaseURL          string
	MaxDBConns           int32
	RedisURL             string
	KafkaBrokers         []string
	KafkaGroupID         string
	InputTopics          []string
	DomainTopic          string
	AnalyticsTopic       string
	DLQTopic             string
	LedgerGRPCURL        string
	NetworkGRPCURL       string
	JWTSecret            string
	EventDedupTTL        time.Duration
	ConsumerPollInterval time.Duration
	OutboxFlushInterval  time.Duration
	OutboxFlushBatchSize int
	RecheckInterval      time.Duration
	RecheckDelay         time.Duration
	RecheckBatchSize     int
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Storage struct {
		DatabaseURL string `yaml:"database_url"`
		MaxConns    int    `yaml:"max_conns"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"storage"`
	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		GroupID        string   `yaml:"group_id"`
		InputTopics    []string `yaml:"input_topics"`
		DomainTopic    string   `yaml:"domain_topic"`
		AnalyticsTopic string   `yaml:"analytics_topic"`
		DLQTopic       string   `yaml:"dlq_topic"`
	} `yaml:"kafka"`
	Dependencies struct {
		LedgerGRPCURL  string `yaml:"ledger_grpc_url"`
		NetworkGRPCURL string `yaml:"network_grpc_url"`
	} `yaml:"dependencies"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "M47-Chargeback-Engine",
		HTTPPort:             8080,
		GRPCPort:             9090,
		KafkaGroupID:         "m47-chargeback-engine",
		InputTopics:          []string{"merchant.response.received", "chargeback.recheck.due"},
		DomainTopic:          "chargeback.domain",
		AnalyticsTopic:       "chargeback.analytics",
		DLQTopic:             "chargeback-engine.dlq",
		EventDedupTTL:        7 * 24 * time.Hour,
		ConsumerPollInterval: 2 * time.Second,
		OutboxFlushInterval:  2 * time.Second,
		OutboxFlushBatchSize: 100,
		RecheckInterval:      30 * time.Second,
		RecheckDelay:         3 * 24 * time.Hour,
		RecheckBatchSize:     50,
	}
	if raw, err := os.ReadFile(path); err == nil {
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
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
		cfg.DatabaseURL = f.Storage.DatabaseURL
		if f.Storage.MaxConns > 0 {
			cfg.MaxDBConns = int32(f.Storage.MaxConns)
		}
		cfg.RedisURL = f.Storage.RedisURL
		if len(f.Kafka.Brokers) > 0 {
			cfg.KafkaBrokers = f.Kafka.Brokers
		}
		if f.Kafka.GroupID != "" {
			cfg.KafkaGroupID = f.Kafka.GroupID
		}
		if len(f.Kafka.InputTopics) > 0 {
			cfg.InputTopics = f.Kafka.InputTopics
		}
		if f.Kafka.DomainTopic != "" {
			cfg.DomainTopic = f.Kafka.DomainTopic
		}
		if f.Kafka.AnalyticsTopic != "" {
			cfg.AnalyticsTopic = f.Kafka.AnalyticsTopic
		}
		if f.Kafka.DLQTopic != "" {
			cfg.DLQTopic = f.Kafka.DLQTopic
		}
		cfg.LedgerGRPCURL = f.Dependencies.LedgerGRPCURL
		cfg.NetworkGRPCURL = f.Dependencies.NetworkGRPCURL
		cfg.JWTSecret = f.Auth.JWTSecret
	}
	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitAndTrim(v)
	}
	cfg.LedgerGRPCURL = envOrDefault("LEDGER_GRPC_URL", cfg.LedgerGRPCURL)
	cfg.NetworkGRPCURL = envOrDefault("NETWORK_GRPC_URL", cfg.NetworkGRPCURL)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.OutboxFlushBatchSize = envInt("OUTBOX_FLUSH_BATCH_SIZE", cfg.OutboxFlushBatchSize)
	cfg.RecheckDelay = time.Duration(envInt("RECHECK_DELAY_HOURS", int(cfg.RecheckDelay.Hours()))) * time.Hour
	cfg.RecheckBatchSize = envInt("RECHECK_BATCH_SIZE", cfg.RecheckBatchSize)
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

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

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
