// Package orchestrator fans scrape targets out to the agent with
// bounded concurrency, isolates per-target failures, and funnels every
// outcome into the learning store and session history.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagehound/scraperd/internal/history"
	"github.com/pagehound/scraperd/internal/memory"
	"github.com/pagehound/scraperd/internal/metrics"
	"github.com/pagehound/scraperd/internal/policy/ratelimit"
	"github.com/pagehound/scraperd/internal/progress"
	"github.com/pagehound/scraperd/internal/scraper"
)

// Config controls Orchestrator behavior.
type Config struct {
	// Concurrency bounds in-flight scrapes per batch.
	Concurrency int
	// ScrapeTimeout caps each agent call.
	ScrapeTimeout time.Duration
	// Topic, when set with a publisher, receives batch completion events.
	Topic string
	// SnapshotPrefix prefixes blob paths for raw page snapshots.
	SnapshotPrefix string
}

// Orchestrator drives scrape attempts against the external agent.
type Orchestrator struct {
	agent     scraper.Agent
	store     *memory.Store
	log       *history.Log
	archive   scraper.OutcomeWriter
	publisher scraper.Publisher
	snapshots scraper.BlobStore
	limiter   *ratelimit.Limiter
	clock     scraper.Clock
	idGen     scraper.IDGenerator
	hasher    scraper.Hasher
	events    progress.Emitter
	cfg       Config
	logger    *zap.Logger
}

// New constructs an Orchestrator. The agent may be nil; that is a
// configuration state surfaced as ErrAgentUnavailable on submission,
// not a construction error. Archive, publisher, and snapshot store are
// optional side-channels.
func New(
	agent scraper.Agent,
	store *memory.Store,
	log *history.Log,
	archive scraper.OutcomeWriter,
	publisher scraper.Publisher,
	snapshots scraper.BlobStore,
	limiter *ratelimit.Limiter,
	clock scraper.Clock,
	idGen scraper.IDGenerator,
	hasher scraper.Hasher,
	events progress.Emitter,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.ScrapeTimeout <= 0 {
		cfg.ScrapeTimeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		agent:     agent,
		store:     store,
		log:       log,
		archive:   archive,
		publisher: publisher,
		snapshots: snapshots,
		limiter:   limiter,
		clock:     clock,
		idGen:     idGen,
		hasher:    hasher,
		events:    events,
		cfg:       cfg,
		logger:    logger,
	}
}

// ValidateTarget rejects malformed targets before dispatch.
func ValidateTarget(target scraper.Target) error {
	if target.URL == "" {
		return errors.New("url required")
	}
	if target.Goal == "" {
		return errors.New("goal required")
	}
	if _, err := scraper.URLKey(target.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	return nil
}

// ScrapeOne executes a single target synchronously.
func (o *Orchestrator) ScrapeOne(ctx context.Context, target scraper.Target) (scraper.TargetResult, error) {
	if o.agent == nil {
		return scraper.TargetResult{}, scraper.ErrAgentUnavailable
	}
	if err := ValidateTarget(target); err != nil {
		return failedResult(target, scraper.ReasonInvalidInput, err.Error(), 0), nil
	}
	return o.runTarget(ctx, target), nil
}

// RunBatch executes the targets with bounded concurrency. The returned
// report has one result slot per input target, in submission order,
// and one target's failure never aborts its siblings. Cancelling ctx
// stops dispatch of not-yet-started targets; completed effects are
// retained.
func (o *Orchestrator) RunBatch(ctx context.Context, targets []scraper.Target) (scraper.BatchReport, error) {
	if o.agent == nil {
		return scraper.BatchReport{}, scraper.ErrAgentUnavailable
	}

	batchID := ""
	if o.idGen != nil {
		if id, err := o.idGen.NewID(); err == nil {
			batchID = id
		}
	}
	started := o.clock.Now()
	o.emit(progress.Event{
		BatchID: batchID,
		TS:      started,
		Stage:   progress.StageBatchStart,
		Targets: len(targets),
	})
	results := make([]scraper.TargetResult, len(targets))
	sem := make(chan struct{}, o.cfg.Concurrency)

	var wg sync.WaitGroup
	for i, target := range targets {
		// Invalid targets are rejected up front without consuming a
		// concurrency slot.
		if err := ValidateTarget(target); err != nil {
			results[i] = failedResult(target, scraper.ReasonInvalidInput, err.Error(), 0)
			continue
		}

		select {
		case <-ctx.Done():
			results[i] = failedResult(target, scraper.ReasonCanceled, "batch canceled before dispatch", 0)
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, tgt scraper.Target) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = o.runTarget(ctx, tgt)
		}(i, target)
	}
	wg.Wait()

	report := scraper.BatchReport{
		ID:       batchID,
		Results:  results,
		Counts:   countResults(results),
		Started:  started,
		Finished: o.clock.Now(),
	}
	o.emit(progress.Event{
		BatchID: batchID,
		TS:      report.Finished,
		Stage:   progress.StageBatchDone,
		Targets: len(targets),
		Dur:     report.Finished.Sub(started),
	})
	o.publishReport(ctx, report)
	return report, nil
}

// runTarget performs one scrape attempt: politeness wait, bounded agent
// call, learning, history. It always returns a populated result slot.
func (o *Orchestrator) runTarget(ctx context.Context, target scraper.Target) scraper.TargetResult {
	start := o.clock.Now()
	metrics.IncActiveScrapes()
	defer metrics.DecActiveScrapes()

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx, target.URL); err != nil {
			return o.finishTarget(ctx, failedResult(target, scraper.ReasonCanceled, err.Error(), o.clock.Now().Sub(start)))
		}
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, o.cfg.ScrapeTimeout)
	defer cancel()

	result, err := o.scrape(scrapeCtx, target)
	duration := o.clock.Now().Sub(start)
	if err != nil {
		reason := scraper.ReasonAgentError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			reason = scraper.ReasonTimeout
		case errors.Is(err, context.Canceled):
			reason = scraper.ReasonCanceled
		}
		o.logger.Warn("scrape failed",
			zap.String("url", target.URL),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return o.finishTarget(ctx, failedResult(target, reason, err.Error(), duration))
	}

	o.learn(ctx, target.URL, result)
	o.logger.Debug("scrape completed",
		zap.String("url", target.URL),
		zap.Int("actions", result.ActionsTaken),
		zap.Int("selectors", len(result.SelectorsUsed)),
	)
	return o.finishTarget(ctx, scraper.TargetResult{
		Target:   target,
		Status:   scraper.TargetSucceeded,
		Result:   &result,
		Duration: duration,
	})
}

// scrape calls the agent and converts a panic into a target failure so
// one misbehaving page cannot take down the batch.
func (o *Orchestrator) scrape(ctx context.Context, target scraper.Target) (result scraper.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("agent panic: %v", rec)
		}
	}()
	return o.agent.Scrape(ctx, target.URL, target.Goal)
}

// finishTarget appends the attempt to session history, snapshots raw
// HTML for successful scrapes, and records metrics.
func (o *Orchestrator) finishTarget(ctx context.Context, result scraper.TargetResult) scraper.TargetResult {
	o.log.Append(scraper.HistoryEntry{
		URL:       result.Target.URL,
		Goal:      result.Target.Goal,
		Status:    result.Status,
		Result:    result.Result,
		Error:     result.Error,
		Timestamp: o.clock.Now(),
	})
	metrics.ObserveScrape(string(result.Status), result.Duration)
	metrics.ObserveBatchTarget(string(result.Status))

	stage := progress.StageScrapeDone
	selectors := 0
	if result.Result != nil {
		selectors = len(result.Result.SelectorsUsed)
	}
	if result.Status == scraper.TargetFailed {
		stage = progress.StageScrapeError
	}
	o.emit(progress.Event{
		TS:        o.clock.Now(),
		Stage:     stage,
		URL:       result.Target.URL,
		Goal:      result.Target.Goal,
		Selectors: selectors,
		Dur:       result.Duration,
		Note:      result.Error,
	})

	if result.Status == scraper.TargetSucceeded && o.snapshots != nil && result.Result != nil && len(result.Result.HTML) > 0 {
		o.storeSnapshot(ctx, result.Target.URL, result.Result.HTML)
	}
	return result
}

// learn records every selector the agent applied into the memory store
// and mirrors the outcomes to the optional archive. Recording the same
// outcome twice only inflates counters, so a retried target is safe.
func (o *Orchestrator) learn(ctx context.Context, url string, result scraper.Result) {
	now := o.clock.Now()
	for _, usage := range result.SelectorsUsed {
		outcome := scraper.Outcome{
			URL:         url,
			Selector:    usage.Selector,
			ElementType: usage.ElementType,
			Success:     usage.Success,
			Timestamp:   now,
		}
		o.store.Record(outcome)
		if o.archive != nil {
			if err := o.archive.WriteOutcome(ctx, outcome); err != nil {
				o.logger.Warn("outcome archive write failed", zap.String("url", url), zap.Error(err))
			}
		}
	}
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.events == nil {
		return
	}
	o.events.Emit(evt)
}

func (o *Orchestrator) storeSnapshot(ctx context.Context, url string, html []byte) {
	id := ""
	if o.idGen != nil {
		if generated, err := o.idGen.NewID(); err == nil {
			id = generated
		}
	}
	if id == "" {
		return
	}
	path := fmt.Sprintf("%s.html", id)
	// Group snapshots of the same page under a stable URL digest.
	if o.hasher != nil {
		if digest, err := o.hasher.Hash([]byte(url)); err == nil && len(digest) >= 12 {
			path = fmt.Sprintf("%s/%s", digest[:12], path)
		}
	}
	if o.cfg.SnapshotPrefix != "" {
		path = fmt.Sprintf("%s/%s", o.cfg.SnapshotPrefix, path)
	}
	uri, err := o.snapshots.PutObject(ctx, path, "text/html; charset=utf-8", html)
	if err != nil {
		o.logger.Warn("snapshot write failed", zap.String("url", url), zap.Error(err))
		return
	}
	o.logger.Debug("snapshot stored", zap.String("url", url), zap.String("blob_uri", uri))
}

func (o *Orchestrator) publishReport(ctx context.Context, report scraper.BatchReport) {
	if o.publisher == nil || o.cfg.Topic == "" {
		return
	}
	payload := map[string]any{
		"batch_id":    report.ID,
		"total":       report.Counts.Total,
		"completed":   report.Counts.Completed,
		"failed":      report.Counts.Failed,
		"started_at":  report.Started.Format(time.RFC3339),
		"finished_at": report.Finished.Format(time.RFC3339),
	}
	if _, err := o.publisher.Publish(ctx, o.cfg.Topic, payload); err != nil {
		o.logger.Warn("batch publish failed", zap.String("batch_id", report.ID), zap.Error(err))
	}
}

func failedResult(target scraper.Target, reason scraper.FailureReason, msg string, duration time.Duration) scraper.TargetResult {
	return scraper.TargetResult{
		Target:   target,
		Status:   scraper.TargetFailed,
		Reason:   reason,
		Error:    msg,
		Duration: duration,
	}
}

func countResults(results []scraper.TargetResult) scraper.BatchCounts {
	counts := scraper.BatchCounts{Total: len(results)}
	for _, result := range results {
		if result.Status == scraper.TargetSucceeded {
			counts.Completed++
		} else {
			counts.Failed++
		}
	}
	return counts
}
