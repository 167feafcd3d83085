package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
	Market   MarketConfig   `yaml:"market"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type MarketConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type ScoringConfig struct {
	MaterialityFloor       float64 `yaml:"materiality_floor"`
	TopContributors        int     `yaml:"top_contributors"`
	DuplicateFlagThreshold float64 `yaml:"duplicate_flag_threshold"`

	// WeightOverrides replaces the whole weight table for a domain.
	// Keys are domain names, values are signal-name to weight maps.
	WeightOverrides map[string]map[string]float64 `yaml:"weight_overrides"`
}

type SweeperConfig struct {
	TickIntervalMs  int `yaml:"tick_interval_ms"`
	ReviewWindowHrs int `yaml:"review_window_hours"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Sweeper.TickIntervalMs) * time.Millisecond
}

func (c *Config) ReviewWindow() time.Duration {
	return time.Duration(c.Sweeper.ReviewWindowHrs) * time.Hour
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Market: MarketConfig{
			URL: "http://localhost:9080",
		},
		Scoring: ScoringConfig{
			MaterialityFloor:       15,
			TopContributors:        3,
			DuplicateFlagThreshold: 80,
		},
		Sweeper: SweeperConfig{
			TickIntervalMs:  60000,
			ReviewWindowHrs: 72,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("VERDICT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("VERDICT_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("VERDICT_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("VERDICT_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("VERDICT_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("VERDICT_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("VERDICT_MARKET_URL"); v != "" {
		cfg.Market.URL = v
	}
	if v := os.Getenv("VERDICT_MARKET_TOKEN"); v != "" {
		cfg.Market.Token = v
	}
	if v := os.Getenv("VERDICT_DUPLICATE_FLAG_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.DuplicateFlagThreshold = f
		}
	}
	if v := os.Getenv("VERDICT_SWEEPER_TICK_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sweeper.TickIntervalMs = n
		}
	}
	if v := os.Getenv("VERDICT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
