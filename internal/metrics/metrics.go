// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal           *prometheus.CounterVec
	scrapeDurationSeconds  prometheus.Histogram
	batchTargetsTotal      *prometheus.CounterVec
	activeScrapes          prometheus.Gauge
	memoryOutcomesTotal    *prometheus.CounterVec
	memoryTrackedURLsGauge prometheus.Gauge
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_scrapes_total",
				Help: "Total number of scrape attempts, labeled by status.",
			},
			[]string{"status"},
		)

		scrapeDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_scrape_duration_seconds",
				Help:    "Histogram of scrape attempt latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		)

		batchTargetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_batch_targets_total",
				Help: "Total number of batch targets processed, labeled by status.",
			},
			[]string{"status"},
		)

		activeScrapes = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_active_scrapes",
				Help: "Number of scrape attempts currently in flight.",
			},
		)

		memoryOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_memory_outcomes_total",
				Help: "Total selector outcomes recorded into memory, labeled by result.",
			},
			[]string{"result"},
		)

		memoryTrackedURLsGauge = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_memory_tracked_urls",
				Help: "Number of distinct URL keys currently tracked in memory.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_http_requests_total",
				Help: "Total HTTP requests served, labeled by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape records one completed scrape attempt.
func ObserveScrape(status string, duration time.Duration) {
	if scrapesTotal == nil {
		return
	}
	scrapesTotal.WithLabelValues(status).Inc()
	scrapeDurationSeconds.Observe(duration.Seconds())
}

// ObserveBatchTarget increments the per-target batch counter.
func ObserveBatchTarget(status string) {
	if batchTargetsTotal == nil {
		return
	}
	batchTargetsTotal.WithLabelValues(status).Inc()
}

// IncActiveScrapes increments the in-flight scrape gauge.
func IncActiveScrapes() {
	if activeScrapes == nil {
		return
	}
	activeScrapes.Inc()
}

// DecActiveScrapes decrements the in-flight scrape gauge.
func DecActiveScrapes() {
	if activeScrapes == nil {
		return
	}
	activeScrapes.Dec()
}

// ObserveOutcome counts a selector outcome recorded into memory.
func ObserveOutcome(success bool) {
	if memoryOutcomesTotal == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	memoryOutcomesTotal.WithLabelValues(result).Inc()
}

// SetTrackedURLs updates the tracked URL key gauge.
func SetTrackedURLs(n int) {
	if memoryTrackedURLsGauge == nil {
		return
	}
	memoryTrackedURLsGauge.Set(float64(n))
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
