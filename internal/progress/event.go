package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageBatchStart  Stage = "BATCH_START"
	StageBatchDone   Stage = "BATCH_DONE"
	StageScrapeDone  Stage = "SCRAPE_DONE"
	StageScrapeError Stage = "SCRAPE_ERROR"
)

// Event captures a single milestone of scrape progress.
type Event struct {
	// BatchID scopes the event to one batch run; empty for single scrapes.
	BatchID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// URL is the page URL for scrape events; it should not contain credentials.
	URL string
	// Goal is the extraction goal submitted with the target.
	Goal string
	// Selectors counts the selectors the agent applied during the attempt.
	Selectors int
	// Targets carries the batch size for batch events.
	Targets int
	// Dur captures execution latency for scrape and batch completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageBatchStart, StageBatchDone:
		if e.Targets < 0 {
			return errors.New("batch events require a non-negative target count")
		}
	case StageScrapeDone, StageScrapeError:
		if e.URL == "" {
			return errors.New("scrape events require a url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
