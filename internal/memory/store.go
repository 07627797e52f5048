// Package memory implements the selector learning store. It remembers
// which extraction selectors worked on which URL keys and derives
// ranked recommendations from the accumulated statistics.
package memory

import (
	"sync"
	"time"

	"github.com/pagehound/scraperd/internal/metrics"
	"github.com/pagehound/scraperd/internal/scraper"
)

// Config tunes store behavior.
type Config struct {
	// MinSamples filters recommendations with fewer attempts.
	MinSamples int
	// MaxAge bounds how stale a statistic may be before Prune removes it.
	MaxAge time.Duration
	// MaxEntries caps the number of tracked URL keys; Prune evicts the
	// least recently seen keys beyond it. Zero means uncapped.
	MaxEntries int
}

// Store is a concurrent-safe collection of selector statistics keyed
// by (urlKey, selector). All operations are total: unknown keys yield
// empty results, never errors.
type Store struct {
	mu           sync.RWMutex
	stats        map[string]map[string]*scraper.SelectorStat
	totalRecords int
	clock        scraper.Clock
	cfg          Config
}

// NewStore constructs a Store.
func NewStore(clock scraper.Clock, cfg Config) *Store {
	if cfg.MinSamples < 1 {
		cfg.MinSamples = 1
	}
	return &Store{
		stats: make(map[string]map[string]*scraper.SelectorStat),
		clock: clock,
		cfg:   cfg,
	}
}

// Record upserts the statistic for the outcome's (urlKey, selector)
// pair. Attempts always increments; successes increments iff the
// outcome succeeded. The counter pair is updated under one lock so
// concurrent callers never observe a partial update. Outcomes whose
// URL cannot be keyed are counted against the raw URL string so no
// record is silently dropped.
func (s *Store) Record(outcome scraper.Outcome) {
	key, err := scraper.URLKey(outcome.URL)
	if err != nil {
		key = outcome.URL
	}
	ts := outcome.Timestamp
	if ts.IsZero() {
		ts = s.clock.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	selectors := s.stats[key]
	if selectors == nil {
		selectors = make(map[string]*scraper.SelectorStat)
		s.stats[key] = selectors
		metrics.SetTrackedURLs(len(s.stats))
	}
	stat := selectors[outcome.Selector]
	if stat == nil {
		stat = &scraper.SelectorStat{Selector: outcome.Selector}
		selectors[outcome.Selector] = stat
	}
	stat.Attempts++
	if outcome.Success {
		stat.Successes++
	}
	if ts.After(stat.LastSeen) {
		stat.LastSeen = ts
	}
	if outcome.ElementType != "" {
		stat.ElementType = outcome.ElementType
	}
	s.totalRecords++
	metrics.ObserveOutcome(outcome.Success)
}

// Query returns a snapshot copy of all statistics for the URL's key.
// The returned slice does not alias store internals.
func (s *Store) Query(url string) []scraper.SelectorStat {
	key, err := scraper.URLKey(url)
	if err != nil {
		key = url
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	selectors := s.stats[key]
	out := make([]scraper.SelectorStat, 0, len(selectors))
	for _, stat := range selectors {
		out = append(out, *stat)
	}
	return out
}

// GlobalStats reports aggregate counters across all keys.
func (s *Store) GlobalStats() scraper.GlobalStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	distinct := 0
	for _, selectors := range s.stats {
		distinct += len(selectors)
	}
	return scraper.GlobalStats{
		TotalRecords:      s.totalRecords,
		DistinctURLs:      len(s.stats),
		DistinctSelectors: distinct,
	}
}

// Prune removes statistics whose LastSeen exceeds the configured
// MaxAge, then evicts least-recently-seen URL keys beyond MaxEntries.
// It returns the number of URL keys removed.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	if s.cfg.MaxAge > 0 {
		cutoff := s.clock.Now().Add(-s.cfg.MaxAge)
		for key, selectors := range s.stats {
			for sel, stat := range selectors {
				if stat.LastSeen.Before(cutoff) {
					delete(selectors, sel)
				}
			}
			if len(selectors) == 0 {
				delete(s.stats, key)
				removed++
			}
		}
	}

	if s.cfg.MaxEntries > 0 {
		for len(s.stats) > s.cfg.MaxEntries {
			oldestKey := ""
			var oldest time.Time
			for key, selectors := range s.stats {
				last := lastSeen(selectors)
				if oldestKey == "" || last.Before(oldest) {
					oldestKey = key
					oldest = last
				}
			}
			delete(s.stats, oldestKey)
			removed++
		}
	}

	metrics.SetTrackedURLs(len(s.stats))
	return removed
}

func lastSeen(selectors map[string]*scraper.SelectorStat) time.Time {
	var last time.Time
	for _, stat := range selectors {
		if stat.LastSeen.After(last) {
			last = stat.LastSeen
		}
	}
	return last
}
