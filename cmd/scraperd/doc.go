// Package main hosts the scraper service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, scrape submission,
//     memory inspection, session history, and tool execution endpoints.
//   - Orchestrator: batch targets flow through a semaphore-bounded fan-out
//     sized by config.Orchestrator.Concurrency. Each target is isolated; one
//     failure never aborts its siblings, and results preserve submission order.
//   - Agents: the Colly-based agent performs plain HTTP fetches and CSS
//     selector extraction; the Chromedp agent renders JavaScript-heavy pages
//     behind its own parallelism semaphore. Both consult the memory store for
//     selector recommendations before falling back to goal-derived guesses.
//   - Learning: every selector attempt feeds the in-memory statistics store
//     keyed by normalized URL, optionally mirrored to Postgres. Completed
//     attempts land in the bounded session history ring.
//   - Fanout: raw HTML snapshots are written to the configured blob store
//     (memory/local/GCS) and a compact Pub/Sub notification is published per
//     batch when a topic is configured. Both are best-effort side-channels.
//   - Configuration & plumbing: Viper populates config from env/files; zap
//     provides structured logging; Prometheus metrics are exported via the
//     /metrics handler.
//
// Operational notes:
//   - Concurrency model: per-batch semaphore plus the headless agent's own
//     limiter. Shutdown is coordinated via context cancellation from main.
//   - Rate limiting: per-domain token buckets pace outbound requests; set
//     ratelimit.rps to zero to disable.
//   - Run locally: go run ./cmd/scraperd -config config.yaml (or rely solely
//     on SCRAPERD_* env overrides).
package main
