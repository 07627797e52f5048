package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pagehound/scraperd/internal/history"
	"github.com/pagehound/scraperd/internal/memory"
	"github.com/pagehound/scraperd/internal/scraper"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// MemoryHandler exposes the selector memory and session history over HTTP.
type MemoryHandler struct {
	store  *memory.Store
	log    *history.Log
	logger *zap.Logger
}

// NewMemoryHandler wires the store, history log and logger.
func NewMemoryHandler(store *memory.Store, log *history.Log, logger *zap.Logger) *MemoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryHandler{
		store:  store,
		log:    log,
		logger: logger,
	}
}

// Stats handles GET /v1/memory/stats. It returns the aggregate view of
// the memory store, or 503 when the store is not wired.
func (h *MemoryHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "memory store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, h.store.GlobalStats())
}

// Selectors handles GET /v1/memory/selectors?url=. It returns
// {"url": ..., "selectors": [...]} with every tracked selector for the
// URL, 400 when the url parameter is missing.
func (h *MemoryHandler) Selectors(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "memory store unavailable")
		return
	}
	url, err := parseURLParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":       url,
		"selectors": h.store.Query(url),
	})
}

// Recommendations handles GET /v1/memory/recommendations?url=. It
// returns the ranked selector suggestions for the URL, best first.
func (h *MemoryHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "memory store unavailable")
		return
	}
	url, err := parseURLParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":             url,
		"recommendations": h.store.Recommend(url),
	})
}

type recordRequest struct {
	URL         string `json:"url"`
	Selector    string `json:"selector"`
	ElementType string `json:"element_type"`
	Success     bool   `json:"success"`
}

// Record handles POST /v1/memory/record, letting operators seed the
// store with externally observed selector outcomes.
func (h *MemoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "memory store unavailable")
		return
	}
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Selector) == "" {
		writeError(w, http.StatusBadRequest, "url and selector are required")
		return
	}
	h.store.Record(scraper.Outcome{
		URL:         req.URL,
		Selector:    req.Selector,
		ElementType: req.ElementType,
		Success:     req.Success,
		Timestamp:   time.Now().UTC(),
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// Prune handles POST /v1/memory/prune and reports how many entries the
// retention policy evicted.
func (h *MemoryHandler) Prune(w http.ResponseWriter, _ *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "memory store unavailable")
		return
	}
	removed := h.store.Prune()
	h.logger.Info("memory pruned", zap.Int("removed", removed))
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// History handles GET /v1/history?limit=. It returns the most recent
// scrape attempts, newest first, clamped to a sane limit.
func (h *MemoryHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeError(w, http.StatusServiceUnavailable, "session history unavailable")
		return
	}
	limit, err := parseLimit(r, defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": h.log.Recent(limit),
		"total":   h.log.Len(),
	})
}

func parseURLParam(r *http.Request) (string, error) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		return "", errors.New("url parameter is required")
	}
	return url, nil
}

func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	return limit, nil
}
