// Package api hosts the HTTP server, middleware, and REST handlers for
// operator access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/scrape and /v1/scrape/batch for scrape submission.
//   - GET /v1/memory/... and /v1/history for the learning store and
//     session history.
//   - GET /v1/tools and POST /v1/tools/execute for tool access.
package api
