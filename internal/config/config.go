package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Redis    RedisConfig    `json:"redis"`
	Rules    RulesConfig    `json:"rules"`
}

type ServerConfig struct {
	BindAddr string `json:"bindAddr"`
}

// DatabaseConfig configures the PostgreSQL store of built-in rule groups.
// When disabled, built-in groups are kept in memory.
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
}

// RedisConfig configures the last-known-good snapshot cache. An empty
// address disables it.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type RulesConfig struct {
	PollInterval string         `json:"pollInterval"` // e.g. "30s"
	FetchTimeout string         `json:"fetchTimeout"` // per source and side
	LastKnownTTL string         `json:"lastKnownTTL"` // e.g. "24h"
	SourcesFile  string         `json:"sourcesFile"`  // YAML list of sources, optional
	Sources      []SourceConfig `json:"sources"`
}

const (
	SourceTypeBuiltin    = "builtin"
	SourceTypePrometheus = "prometheus"
)

// SourceConfig describes one rule source. The built-in source reads declared
// groups from the local store; a prometheus source reads them from a remote
// ruler. Both read evaluated groups from PrometheusURL.
type SourceConfig struct {
	Name          string `json:"name" yaml:"name"`
	Type          string `json:"type" yaml:"type"`
	PrometheusURL string `json:"prometheusURL" yaml:"prometheus_url"`
	RulerURL      string `json:"rulerURL,omitempty" yaml:"ruler_url,omitempty"`
	RulerPath     string `json:"rulerPath,omitempty" yaml:"ruler_path,omitempty"`
}

// Load builds the configuration from environment defaults and, when path is
// set, a JSON file on top of them.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getEnv("SERVER_BIND_ADDR", "0.0.0.0:8080"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "ruleview"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Console: getEnvBool("LOG_CONSOLE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Rules: RulesConfig{
			PollInterval: getEnv("RULES_POLL_INTERVAL", "30s"),
			FetchTimeout: getEnv("RULES_FETCH_TIMEOUT", "10s"),
			LastKnownTTL: getEnv("RULES_LAST_KNOWN_TTL", "24h"),
			SourcesFile:  getEnv("RULES_SOURCES_FILE", ""),
		},
	}
	if url := getEnv("PROMETHEUS_URL", ""); url != "" {
		cfg.Rules.Sources = []SourceConfig{{Name: "builtin", Type: SourceTypeBuiltin, PrometheusURL: url}}
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			log.Err(err).Str("path", path).Msg("failed to load config file")
			return nil, err
		}
	}

	// fill reasonable defaults when fields omitted in file
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = "0.0.0.0:8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Rules.PollInterval == "" {
		cfg.Rules.PollInterval = "30s"
	}
	if cfg.Rules.FetchTimeout == "" {
		cfg.Rules.FetchTimeout = "10s"
	}
	if cfg.Rules.LastKnownTTL == "" {
		cfg.Rules.LastKnownTTL = "24h"
	}

	if cfg.Rules.SourcesFile != "" {
		sources, err := LoadSources(cfg.Rules.SourcesFile)
		if err != nil {
			return nil, err
		}
		cfg.Rules.Sources = append(cfg.Rules.Sources, sources...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks durations and the rule source list.
func (c *Config) Validate() error {
	var errs []error
	for name, v := range map[string]string{
		"rules.pollInterval": c.Rules.PollInterval,
		"rules.fetchTimeout": c.Rules.FetchTimeout,
		"rules.lastKnownTTL": c.Rules.LastKnownTTL,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}
	if err := ValidateSources(c.Rules.Sources); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *RulesConfig) GetPollInterval() time.Duration {
	return parseDuration(r.PollInterval, 30*time.Second)
}

func (r *RulesConfig) GetFetchTimeout() time.Duration {
	return parseDuration(r.FetchTimeout, 10*time.Second)
}

func (r *RulesConfig) GetLastKnownTTL() time.Duration {
	return parseDuration(r.LastKnownTTL, 24*time.Hour)
}

func parseDuration(s string, d time.Duration) time.Duration {
	if s == "" {
		return d
	}
	if v, err := time.ParseDuration(s); err == nil && v > 0 {
		return v
	}
	return d
}

func loadFromFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
