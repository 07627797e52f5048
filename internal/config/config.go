// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Agent        AgentConfig        `mapstructure:"agent"`
	Headless     HeadlessConfig     `mapstructure:"headless"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Memory       MemoryConfig       `mapstructure:"memory"`
	History      HistoryConfig      `mapstructure:"history"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	DB           DBConfig           `mapstructure:"db"`
	PubSub       PubSubConfig       `mapstructure:"pubsub"`
	Snapshot     SnapshotConfig     `mapstructure:"snapshot"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// AgentConfig selects and tunes the scraping agent.
type AgentConfig struct {
	// Provider picks the agent implementation: "http" or "headless".
	Provider       string `mapstructure:"provider"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the headless rendering agent.
type HeadlessConfig struct {
	MaxParallel   int `mapstructure:"max_parallel"`
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// OrchestratorConfig governs batch scrape behavior.
type OrchestratorConfig struct {
	Concurrency       int `mapstructure:"concurrency"`
	ScrapeTimeoutSec  int `mapstructure:"scrape_timeout_seconds"`
	ShutdownGraceSecs int `mapstructure:"shutdown_grace_seconds"`
}

// MemoryConfig tunes the selector memory store.
type MemoryConfig struct {
	MinSamples  int `mapstructure:"min_samples"`
	MaxAgeHours int `mapstructure:"max_age_hours"`
	MaxEntries  int `mapstructure:"max_entries"`
}

// HistoryConfig bounds the session history log.
type HistoryConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// RateLimitConfig controls per-domain request pacing.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// DBConfig controls access to the outcome archive database.
type DBConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// PubSubConfig holds metadata for batch report notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// SnapshotConfig sets the destination for page snapshots.
type SnapshotConfig struct {
	// Provider picks the blob store: "none", "memory", "local" or "gcs".
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("agent.provider", "http")
	v.SetDefault("agent.user_agent", "pagehound-bot/0.1")
	v.SetDefault("agent.timeout_seconds", 30)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("orchestrator.concurrency", 5)
	v.SetDefault("orchestrator.scrape_timeout_seconds", 45)
	v.SetDefault("orchestrator.shutdown_grace_seconds", 10)
	v.SetDefault("memory.min_samples", 1)
	v.SetDefault("memory.max_age_hours", 0)
	v.SetDefault("memory.max_entries", 0)
	v.SetDefault("history.capacity", 100)
	v.SetDefault("ratelimit.rps", 2.0)
	v.SetDefault("ratelimit.burst", 1)
	v.SetDefault("db.table", "selector_outcomes")
	v.SetDefault("snapshot.provider", "none")
	v.SetDefault("snapshot.prefix", "pages")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Agent.Provider {
	case "http", "headless":
	default:
		return fmt.Errorf("agent.provider must be http or headless")
	}
	if c.Agent.TimeoutSeconds <= 0 {
		return fmt.Errorf("agent.timeout_seconds must be > 0")
	}
	if c.Agent.Provider == "headless" && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when the headless agent is selected")
	}
	if c.Orchestrator.Concurrency <= 0 {
		return fmt.Errorf("orchestrator.concurrency must be > 0")
	}
	if c.Orchestrator.ScrapeTimeoutSec <= 0 {
		return fmt.Errorf("orchestrator.scrape_timeout_seconds must be > 0")
	}
	if c.History.Capacity <= 0 {
		return fmt.Errorf("history.capacity must be > 0")
	}
	if c.Memory.MinSamples < 0 {
		return fmt.Errorf("memory.min_samples must be >= 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Snapshot.Provider {
	case "", "none", "memory":
	case "local":
		if c.Snapshot.BaseDir == "" {
			return fmt.Errorf("snapshot.base_dir must be set for the local provider")
		}
	case "gcs":
		if c.Snapshot.GCSBucket == "" {
			return fmt.Errorf("snapshot.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("snapshot.provider must be none, memory, local or gcs")
	}
	return nil
}

// ScrapeTimeout converts the per-target budget into a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Orchestrator.ScrapeTimeoutSec) * time.Second
}

// MemoryMaxAge converts the prune horizon into a duration. Zero disables
// age-based pruning.
func (c Config) MemoryMaxAge() time.Duration {
	return time.Duration(c.Memory.MaxAgeHours) * time.Hour
}
