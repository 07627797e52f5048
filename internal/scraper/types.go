// Package scraper defines core types shared across subsystems.
package scraper

import "time"

// TargetStatus represents the terminal state of one scrape target.
type TargetStatus string

// Target status values reported per batch slot.
const (
	TargetSucceeded TargetStatus = "succeeded"
	TargetFailed    TargetStatus = "failed"
)

// FailureReason classifies why a target failed.
type FailureReason string

// Failure reasons carried in TargetResult.Reason.
const (
	ReasonInvalidInput FailureReason = "invalid_input"
	ReasonTimeout      FailureReason = "timeout"
	ReasonAgentError   FailureReason = "agent_error"
	ReasonCanceled     FailureReason = "canceled"
)

// Target is one (url, goal) pair submitted for scraping.
type Target struct {
	URL  string `json:"url"`
	Goal string `json:"goal"`
}

// SelectorUsage reports one selector the agent applied while scraping.
type SelectorUsage struct {
	Selector    string `json:"selector"`
	ElementType string `json:"element_type,omitempty"`
	Success     bool   `json:"success"`
}

// Result is the outcome payload returned by an Agent implementation.
type Result struct {
	Success       bool              `json:"success"`
	Data          map[string]string `json:"data"`
	ActionsTaken  int               `json:"actions_taken"`
	SelectorsUsed []SelectorUsage   `json:"selectors_used,omitempty"`
	HTML          []byte            `json:"-"`
}

// TargetResult is one slot in a batch report, positioned at the index
// of the target that produced it.
type TargetResult struct {
	Target   Target        `json:"target"`
	Status   TargetStatus  `json:"status"`
	Result   *Result       `json:"result,omitempty"`
	Reason   FailureReason `json:"reason,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ms"`
}

// BatchCounts aggregates terminal states across a batch.
type BatchCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// BatchReport is returned for every batch submission. Results preserve
// submission order regardless of completion order.
type BatchReport struct {
	ID       string         `json:"id"`
	Results  []TargetResult `json:"results"`
	Counts   BatchCounts    `json:"counts"`
	Started  time.Time      `json:"started_at"`
	Finished time.Time      `json:"finished_at"`
}

// Outcome is the immutable fact that a selector was tried on a URL.
type Outcome struct {
	URL         string    `json:"url"`
	Selector    string    `json:"selector"`
	ElementType string    `json:"element_type,omitempty"`
	Success     bool      `json:"success"`
	Timestamp   time.Time `json:"timestamp"`
}

// SelectorStat aggregates outcomes for one (urlKey, selector) pair.
type SelectorStat struct {
	Selector    string    `json:"selector"`
	ElementType string    `json:"element_type,omitempty"`
	Attempts    int       `json:"attempts"`
	Successes   int       `json:"successes"`
	LastSeen    time.Time `json:"last_seen"`
}

// Confidence is the success ratio, zero when no attempts were made.
func (s SelectorStat) Confidence() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts)
}

// Recommendation is a ranked selector suggestion for a URL.
type Recommendation struct {
	Selector    string    `json:"selector"`
	ElementType string    `json:"element_type,omitempty"`
	Confidence  float64   `json:"confidence"`
	Attempts    int       `json:"attempts"`
	LastSeen    time.Time `json:"last_seen"`
}

// GlobalStats summarizes the memory store for reporting.
type GlobalStats struct {
	TotalRecords      int `json:"total_records"`
	DistinctURLs      int `json:"distinct_urls"`
	DistinctSelectors int `json:"distinct_selectors"`
}

// HistoryEntry is one completed scrape attempt retained in the
// bounded session history.
type HistoryEntry struct {
	URL       string       `json:"url"`
	Goal      string       `json:"goal"`
	Status    TargetStatus `json:"status"`
	Result    *Result      `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ToolResult is returned by tool executions.
type ToolResult struct {
	Success bool           `json:"success"`
	Result  map[string]any `json:"result"`
}
