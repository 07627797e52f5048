// Package history keeps a bounded rolling log of completed scrape
// attempts, independent of the learning store.
package history

import (
	"sync"

	"github.com/pagehound/scraperd/internal/scraper"
)

// DefaultCapacity bounds the log when no capacity is configured.
const DefaultCapacity = 100

// Log is a fixed-capacity FIFO of the most recent scrape attempts.
// Append and eviction happen under one lock, so the bound holds under
// any number of concurrent appenders.
type Log struct {
	mu       sync.RWMutex
	entries  []scraper.HistoryEntry
	start    int
	size     int
	capacity int
}

// NewLog constructs a Log retaining at most capacity entries.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]scraper.HistoryEntry, capacity),
		capacity: capacity,
	}
}

// Append inserts an entry, evicting the oldest first when the log is
// full. It never fails.
func (l *Log) Append(entry scraper.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size == l.capacity {
		l.entries[l.start] = entry
		l.start = (l.start + 1) % l.capacity
		return
	}
	l.entries[(l.start+l.size)%l.capacity] = entry
	l.size++
}

// Recent returns up to limit entries, most recent first. A limit of
// zero or beyond the retained count is clamped to what is available.
func (l *Log) Recent(limit int) []scraper.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > l.size {
		limit = l.size
	}
	out := make([]scraper.HistoryEntry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (l.start + l.size - 1 - i + l.capacity) % l.capacity
		out = append(out, l.entries[idx])
	}
	return out
}

// Len reports the number of retained entries (<= capacity).
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Capacity reports the configured bound.
func (l *Log) Capacity() int {
	return l.capacity
}
