package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pagehound/scraperd/internal/history"
	"github.com/pagehound/scraperd/internal/memory"
	"github.com/pagehound/scraperd/internal/scraper"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Unix(1000, 0).UTC() }

func TestRegistry_ExecuteUnknownToolIsFailedResult(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	result, err := r.Execute(context.Background(), "nope", nil)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.Result["error"], "unknown tool")
}

func TestRegistry_ExecuteToolError(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("broken", Tool{
		Run: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("tool blew up")
		},
	})
	result, err := r.Execute(context.Background(), "broken", nil)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "tool blew up", result.Result["error"])
}

func TestRegistry_ListToolsSorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("zeta", Tool{})
	r.Register("alpha", Tool{})
	require.Equal(t, []string{"alpha", "zeta"}, r.ListTools())
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	t.Parallel()

	store := memory.NewStore(fixedClock{}, memory.Config{})
	log := history.NewLog(10)
	store.Record(scraper.Outcome{URL: "https://example.com/a", Selector: ".price", Success: true})
	log.Append(scraper.HistoryEntry{URL: "https://example.com/a", Goal: "price"})

	r := NewDefaultRegistry(store, log)
	require.Equal(t, []string{"history_tail", "memory_lookup", "url_normalize"}, r.ListTools())

	normalized, err := r.Execute(context.Background(), "url_normalize", map[string]any{"url": "HTTPS://Example.com/a/"})
	require.NoError(t, err)
	require.True(t, normalized.Success)
	require.Equal(t, "https://example.com/a", normalized.Result["url_key"])

	lookup, err := r.Execute(context.Background(), "memory_lookup", map[string]any{"url": "https://example.com/a"})
	require.NoError(t, err)
	require.True(t, lookup.Success)
	stats, ok := lookup.Result["selectors"].([]scraper.SelectorStat)
	require.True(t, ok)
	require.Len(t, stats, 1)

	tail, err := r.Execute(context.Background(), "history_tail", map[string]any{"limit": float64(5)})
	require.NoError(t, err)
	require.True(t, tail.Success)

	missing, err := r.Execute(context.Background(), "url_normalize", map[string]any{})
	require.NoError(t, err)
	require.False(t, missing.Success)

	schemas := r.AllSchemas()
	require.Contains(t, schemas, "memory_lookup")
	require.NotEmpty(t, schemas["memory_lookup"]["description"])
}
