package scraper

import (
	"context"
	"time"
)

// Agent executes one scrape attempt against a live page.
type Agent interface {
	Scrape(ctx context.Context, url string, goal string) (Result, error)
}

// Recommender supplies ranked selector suggestions for a URL so agents
// can try proven selectors before guessing.
type Recommender interface {
	Recommend(url string) []Recommendation
}

// ToolExecutor runs registered tools by name.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, params map[string]any) (ToolResult, error)
	ListTools() []string
	AllSchemas() map[string]map[string]any
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// BlobStore writes raw page snapshots and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// OutcomeWriter archives outcome records to external storage.
type OutcomeWriter interface {
	WriteOutcome(ctx context.Context, outcome Outcome) error
}

// Hasher derives stable digests, used to group snapshots by page.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces batch and snapshot IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
