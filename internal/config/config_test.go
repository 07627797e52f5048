package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  enabled: true
  api_key: secret
agent:
  provider: headless
  user_agent: real-agent
  timeout_seconds: 45
headless:
  max_parallel: 2
  nav_timeout_seconds: 30
orchestrator:
  concurrency: 8
  scrape_timeout_seconds: 60
memory:
  min_samples: 3
  max_age_hours: 24
  max_entries: 5000
history:
  capacity: 250
ratelimit:
  rps: 0.5
  burst: 2
db:
  dsn: postgres://localhost/scraperd
snapshot:
  provider: gcs
  gcs_bucket: bucket
  prefix: logs
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Agent.Provider != "headless" || cfg.Headless.MaxParallel != 2 {
		t.Fatalf("expected agent overrides to apply: %+v", cfg.Agent)
	}
	if cfg.Orchestrator.Concurrency != 8 {
		t.Fatalf("expected orchestrator concurrency 8, got %d", cfg.Orchestrator.Concurrency)
	}
	if cfg.Memory.MinSamples != 3 || cfg.History.Capacity != 250 {
		t.Fatalf("expected memory/history overrides to apply")
	}
	if cfg.RateLimit.RPS != 0.5 || cfg.RateLimit.Burst != 2 {
		t.Fatalf("expected rate limit overrides to apply: %+v", cfg.RateLimit)
	}
	if cfg.Snapshot.Provider != "gcs" || cfg.Snapshot.GCSBucket != "bucket" {
		t.Fatalf("expected snapshot overrides to apply: %+v", cfg.Snapshot)
	}
	if got := cfg.ScrapeTimeout(); got != 60*time.Second {
		t.Fatalf("expected scrape timeout 60s, got %v", got)
	}
	if got := cfg.MemoryMaxAge(); got != 24*time.Hour {
		t.Fatalf("expected memory max age 24h, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Agent.Provider != "http" {
		t.Fatalf("expected default agent provider http, got %q", cfg.Agent.Provider)
	}
	if cfg.Orchestrator.Concurrency != 5 {
		t.Fatalf("expected default concurrency 5, got %d", cfg.Orchestrator.Concurrency)
	}
	if cfg.History.Capacity != 100 {
		t.Fatalf("expected default history capacity 100, got %d", cfg.History.Capacity)
	}
	if cfg.DB.Table != "selector_outcomes" {
		t.Fatalf("expected default db table, got %q", cfg.DB.Table)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:       ServerConfig{Port: 8080},
		Agent:        AgentConfig{Provider: "http", TimeoutSeconds: 30},
		Orchestrator: OrchestratorConfig{Concurrency: 5, ScrapeTimeoutSec: 45},
		History:      HistoryConfig{Capacity: 100},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "unknown agent provider",
			cfg: func() Config {
				c := base
				c.Agent.Provider = "carrier-pigeon"
				return c
			}(),
			want: "agent.provider",
		},
		{
			name: "invalid agent timeout",
			cfg: func() Config {
				c := base
				c.Agent.TimeoutSeconds = 0
				return c
			}(),
			want: "agent.timeout_seconds",
		},
		{
			name: "headless missing max parallel",
			cfg: func() Config {
				c := base
				c.Agent.Provider = "headless"
				c.Headless.MaxParallel = 0
				return c
			}(),
			want: "headless.max_parallel",
		},
		{
			name: "invalid concurrency",
			cfg: func() Config {
				c := base
				c.Orchestrator.Concurrency = 0
				return c
			}(),
			want: "orchestrator.concurrency",
		},
		{
			name: "invalid scrape timeout",
			cfg: func() Config {
				c := base
				c.Orchestrator.ScrapeTimeoutSec = 0
				return c
			}(),
			want: "orchestrator.scrape_timeout_seconds",
		},
		{
			name: "invalid history capacity",
			cfg: func() Config {
				c := base
				c.History.Capacity = 0
				return c
			}(),
			want: "history.capacity",
		},
		{
			name: "auth missing api key",
			cfg: func() Config {
				c := base
				c.Auth.Enabled = true
				return c
			}(),
			want: "auth.api_key",
		},
		{
			name: "local snapshot missing base dir",
			cfg: func() Config {
				c := base
				c.Snapshot.Provider = "local"
				return c
			}(),
			want: "snapshot.base_dir",
		},
		{
			name: "gcs snapshot missing bucket",
			cfg: func() Config {
				c := base
				c.Snapshot.Provider = "gcs"
				return c
			}(),
			want: "snapshot.gcs_bucket",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
