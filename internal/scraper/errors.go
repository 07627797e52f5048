package scraper

import "errors"

// ErrAgentUnavailable signals that no scraping agent is configured.
// The façade maps it to a service-unavailable response; it is never
// retried internally.
var ErrAgentUnavailable = errors.New("scraping agent not initialized")
