package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration. Values come from an optional
// YAML file and are overridden by environment variables.
type Config struct {
	ListenAddr   string   `yaml:"listen_addr"`
	DatabaseDSN  string   `yaml:"database_dsn"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	Verbose      bool     `yaml:"verbose"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		KafkaTopic: "health-record-sync-events",
	}
}

// Load builds the configuration from the optional YAML file at path plus
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HRS_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("HRS_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("HRS_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = ParseBrokers(v)
	}
	if v := os.Getenv("HRS_KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	if v := os.Getenv("HRS_VERBOSE"); v == "1" || strings.EqualFold(v, "true") {
		cfg.Verbose = true
	}
}

// ParseBrokers parses a comma-separated broker list, skipping blanks.
func ParseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		brokers = append(brokers, part)
	}
	return brokers
}

// Validate checks the configuration for required values.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database_dsn is required")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("kafka_topic is required when kafka_brokers is set")
	}
	return nil
}

// PublishesEvents reports whether a Kafka publisher should be wired.
func (c Config) PublishesEvents() bool {
	return len(c.KafkaBrokers) > 0
}
