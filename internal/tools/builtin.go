package tools

import (
	"context"
	"errors"

	"github.com/pagehound/scraperd/internal/history"
	"github.com/pagehound/scraperd/internal/memory"
	"github.com/pagehound/scraperd/internal/scraper"
)

// NewDefaultRegistry builds a Registry with the built-in tools wired
// to the process-wide store and history.
func NewDefaultRegistry(store *memory.Store, log *history.Log) *Registry {
	r := NewRegistry()

	r.Register("url_normalize", Tool{
		Description: "Normalize a URL into the key used to group selector statistics.",
		Schema: map[string]any{
			"params": map[string]any{"url": "string (required)"},
		},
		Run: func(_ context.Context, params map[string]any) (map[string]any, error) {
			raw, _ := params["url"].(string)
			if raw == "" {
				return nil, errors.New("url parameter required")
			}
			key, err := scraper.URLKey(raw)
			if err != nil {
				return nil, err
			}
			return map[string]any{"url_key": key}, nil
		},
	})

	r.Register("memory_lookup", Tool{
		Description: "Return remembered selector statistics for a URL.",
		Schema: map[string]any{
			"params": map[string]any{"url": "string (required)"},
		},
		Run: func(_ context.Context, params map[string]any) (map[string]any, error) {
			raw, _ := params["url"].(string)
			if raw == "" {
				return nil, errors.New("url parameter required")
			}
			return map[string]any{
				"selectors":       store.Query(raw),
				"recommendations": store.Recommend(raw),
			}, nil
		},
	})

	r.Register("history_tail", Tool{
		Description: "Return the most recent scrape attempts.",
		Schema: map[string]any{
			"params": map[string]any{"limit": "int (optional, default 10)"},
		},
		Run: func(_ context.Context, params map[string]any) (map[string]any, error) {
			limit := 10
			if v, ok := params["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}
			return map[string]any{"history": log.Recent(limit)}, nil
		},
	})

	return r
}
