package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config tunes the Hub. Zero values select the defaults.
type Config struct {
	// BufferSize is the capacity of the event channel (default 1024).
	BufferSize int
	// FlushAt flushes a batch once it holds this many events (default 64).
	FlushAt int
	// FlushEvery flushes partial batches on this interval (default 250ms).
	FlushEvery time.Duration
	// Logger receives sink-failure and drop warnings.
	Logger *zap.Logger
}

const (
	defaultBufferSize = 1024
	defaultFlushAt    = 64
	defaultFlushEvery = 250 * time.Millisecond
)

// Hub fans scrape lifecycle events out to sinks from a single
// background goroutine. Emit never blocks the orchestrator: when the
// buffer is full the event is dropped, and the total drop count is
// reported once at shutdown. A scrape is never failed over telemetry.
type Hub struct {
	cfg    Config
	sinks  []Sink
	events chan Event
	stopCh chan struct{}
	doneCh chan struct{}
	logger *zap.Logger

	dropped   atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewHub starts the flushing goroutine and returns a Hub ready to
// accept events.
func NewHub(cfg Config, sinks ...Sink) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.FlushAt <= 0 {
		cfg.FlushAt = defaultFlushAt
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = defaultFlushEvery
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		cfg:    cfg,
		sinks:  append([]Sink(nil), sinks...),
		events: make(chan Event, cfg.BufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
	go h.run()
	return h
}

// Emit enqueues one event. Invalid events are discarded; a full buffer
// drops the event instead of blocking the caller.
func (h *Hub) Emit(evt Event) {
	if h == nil || h.closed.Load() {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid scrape event", zap.Error(err))
		return
	}
	select {
	case h.events <- evt:
	default:
		h.dropped.Add(1)
	}
}

// Close drains buffered events, flushes and closes the sinks, and waits
// for the background goroutine to exit. Safe to call more than once.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		close(h.stopCh)
	})
	select {
	case <-h.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("progress hub close: %w", ctx.Err())
	}
}

func (h *Hub) run() {
	defer close(h.doneCh)
	batch := make([]Event, 0, h.cfg.FlushAt)
	ticker := time.NewTicker(h.cfg.FlushEvery)
	defer ticker.Stop()
	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
			if len(batch) >= h.cfg.FlushAt {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				h.flush(batch)
				batch = batch[:0]
			}
		case <-h.stopCh:
			h.drain(batch)
			return
		}
	}
}

// drain empties whatever is still buffered, flushes the final batch,
// and closes the sinks.
func (h *Hub) drain(batch []Event) {
	for {
		select {
		case evt := <-h.events:
			batch = append(batch, evt)
		default:
			if len(batch) > 0 {
				h.flush(batch)
			}
			if n := h.dropped.Load(); n > 0 {
				h.logger.Warn("scrape events dropped under backpressure", zap.Int64("dropped", n))
			}
			for _, sink := range h.sinks {
				if sink == nil {
					continue
				}
				if err := sink.Close(context.Background()); err != nil {
					h.logger.Warn("scrape event sink close failed", zap.Error(err))
				}
			}
			return
		}
	}
}

func (h *Hub) flush(batch []Event) {
	out := append([]Event(nil), batch...)
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Consume(context.Background(), out); err != nil {
			h.logger.Warn("scrape event sink consume failed", zap.Error(err))
		}
	}
}

// Dropped reports how many events were discarded because the buffer
// was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
