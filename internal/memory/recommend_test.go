package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pagehound/scraperd/internal/scraper"
)

func record(store *Store, url, selector string, successes, attempts int) {
	for i := 0; i < attempts; i++ {
		store.Record(scraper.Outcome{
			URL:      url,
			Selector: selector,
			Success:  i < successes,
		})
	}
}

func TestRecommend_OrdersByConfidence(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(Config{})
	const url = "https://shop.example.com/item"
	record(store, url, "A", 8, 10)  // 0.80
	record(store, url, "B", 9, 10)  // 0.90
	record(store, url, "C", 9, 12)  // 0.75

	recs := store.Recommend(url)
	require.Len(t, recs, 3)
	require.Equal(t, "B", recs[0].Selector)
	require.Equal(t, "A", recs[1].Selector)
	require.Equal(t, "C", recs[2].Selector)
	require.InDelta(t, 0.9, recs[0].Confidence, 1e-9)
}

func TestRecommend_TieBrokenByAttempts(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(Config{})
	const url = "https://shop.example.com/item"
	record(store, url, "few", 1, 2)   // 0.50, 2 attempts
	record(store, url, "many", 5, 10) // 0.50, 10 attempts

	recs := store.Recommend(url)
	require.Len(t, recs, 2)
	require.Equal(t, "many", recs[0].Selector)
	require.Equal(t, "few", recs[1].Selector)
}

func TestRecommend_TieBrokenByRecency(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(Config{})
	const url = "https://shop.example.com/item"
	store.Record(scraper.Outcome{URL: url, Selector: "old", Success: true})
	clock.advance(time.Hour)
	store.Record(scraper.Outcome{URL: url, Selector: "new", Success: true})

	recs := store.Recommend(url)
	require.Len(t, recs, 2)
	require.Equal(t, "new", recs[0].Selector)
	require.Equal(t, "old", recs[1].Selector)
}

func TestRecommend_FiltersBelowMinSamples(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(Config{MinSamples: 3})
	const url = "https://shop.example.com/item"
	record(store, url, "thin", 1, 1)
	record(store, url, "solid", 2, 3)

	recs := store.Recommend(url)
	require.Len(t, recs, 1)
	require.Equal(t, "solid", recs[0].Selector)
}

func TestRecommend_UnknownURLReturnsEmpty(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(Config{})
	recs := store.Recommend("https://never-seen.example.com")
	require.NotNil(t, recs)
	require.Empty(t, recs)
}

func TestRecommend_ReflectsLatestSnapshot(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(Config{})
	const url = "https://shop.example.com/item"
	record(store, url, "rising", 0, 1)
	require.Zero(t, store.Recommend(url)[0].Confidence)

	record(store, url, "rising", 3, 3)
	recs := store.Recommend(url)
	require.InDelta(t, 0.75, recs[0].Confidence, 1e-9)
	require.Equal(t, 4, recs[0].Attempts)
}
