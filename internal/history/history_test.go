package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pagehound/scraperd/internal/scraper"
)

func entry(url string) scraper.HistoryEntry {
	return scraper.HistoryEntry{URL: url, Goal: "extract price", Status: scraper.TargetSucceeded}
}

func TestLog_AppendWithinCapacity(t *testing.T) {
	t.Parallel()

	log := NewLog(5)
	log.Append(entry("https://example.com/1"))
	log.Append(entry("https://example.com/2"))

	require.Equal(t, 2, log.Len())
	recent := log.Recent(10)
	require.Len(t, recent, 2)
	require.Equal(t, "https://example.com/2", recent[0].URL)
	require.Equal(t, "https://example.com/1", recent[1].URL)
}

func TestLog_EvictsOldestFIFO(t *testing.T) {
	t.Parallel()

	const capacity = 10
	log := NewLog(capacity)
	for i := 1; i <= capacity+5; i++ {
		log.Append(entry(fmt.Sprintf("https://example.com/%d", i)))
	}

	require.Equal(t, capacity, log.Len())
	recent := log.Recent(capacity)
	require.Len(t, recent, capacity)
	// Most recent first; the oldest five were evicted.
	for i := 0; i < capacity; i++ {
		require.Equal(t, fmt.Sprintf("https://example.com/%d", capacity+5-i), recent[i].URL)
	}
}

func TestLog_RecentClampsLimit(t *testing.T) {
	t.Parallel()

	log := NewLog(5)
	log.Append(entry("https://example.com/1"))
	log.Append(entry("https://example.com/2"))
	log.Append(entry("https://example.com/3"))

	require.Len(t, log.Recent(2), 2)
	require.Len(t, log.Recent(99), 3)
	require.Len(t, log.Recent(0), 3)
}

func TestLog_RecentOnEmpty(t *testing.T) {
	t.Parallel()

	log := NewLog(5)
	require.NotNil(t, log.Recent(10))
	require.Empty(t, log.Recent(10))
	require.Zero(t, log.Len())
}

func TestLog_DefaultCapacity(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultCapacity, NewLog(0).Capacity())
	require.Equal(t, DefaultCapacity, NewLog(-3).Capacity())
}

func TestLog_BoundHoldsUnderConcurrentAppenders(t *testing.T) {
	t.Parallel()

	const capacity = 16
	log := NewLog(capacity)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				log.Append(entry(fmt.Sprintf("https://example.com/%d-%d", worker, j)))
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, capacity, log.Len())
	require.Len(t, log.Recent(capacity*2), capacity)
}
