// Package collyagent implements the scraping agent on top of the
// Colly collector. It fetches a page over plain HTTP and extracts the
// goal by trying candidate selectors: remembered recommendations
// first, then heuristics derived from the goal text.
package collyagent

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/pagehound/scraperd/internal/scraper"
)

// maxRecommended caps how many remembered selectors are tried per page.
const maxRecommended = 5

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Agent implements scraper.Agent using the Colly collector.
type Agent struct {
	cfg           Config
	recommender   scraper.Recommender
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds an Agent. The recommender is optional; without it the
// agent relies on goal heuristics alone.
func New(cfg Config, recommender scraper.Recommender, logger *zap.Logger) *Agent {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Agent{
		cfg:           cfg,
		recommender:   recommender,
		baseCollector: c,
		logger:        logger,
	}
}

// Scrape fetches the URL and applies candidate selectors. Every
// selector tried is reported in SelectorsUsed so the caller can learn
// from both hits and misses.
func (a *Agent) Scrape(ctx context.Context, url string, goal string) (scraper.Result, error) {
	candidates := a.candidateSelectors(url, goal)

	collector := a.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(a.cfg.Timeout)
	if a.cfg.UserAgent != "" {
		collector.UserAgent = a.cfg.UserAgent
	}

	data := make(map[string]string)
	matched := make(map[string]bool)
	var html []byte
	var fetchErr error

	for _, candidate := range candidates {
		cand := candidate
		collector.OnHTML(cand.selector, func(e *colly.HTMLElement) {
			if matched[cand.selector] {
				return
			}
			text := strings.TrimSpace(e.Text)
			if text == "" {
				return
			}
			matched[cand.selector] = true
			if _, taken := data[cand.elementType]; !taken {
				data[cand.elementType] = text
			}
		})
	}
	collector.OnResponse(func(r *colly.Response) {
		html = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := runCollector(ctx, collector, url, &fetchErr); err != nil {
		return scraper.Result{}, err
	}

	usages := make([]scraper.SelectorUsage, 0, len(candidates))
	for _, cand := range candidates {
		usages = append(usages, scraper.SelectorUsage{
			Selector:    cand.selector,
			ElementType: cand.elementType,
			Success:     matched[cand.selector],
		})
	}
	a.logger.Debug("page scraped",
		zap.String("url", url),
		zap.Int("candidates", len(candidates)),
		zap.Int("matched", len(matched)),
	)
	return scraper.Result{
		Success:       len(data) > 0,
		Data:          data,
		ActionsTaken:  len(candidates) + 1,
		SelectorsUsed: usages,
		HTML:          html,
	}, nil
}

type candidate struct {
	selector    string
	elementType string
}

// candidateSelectors merges remembered recommendations with selectors
// guessed from the goal text. Recommendations come first so proven
// selectors claim element slots before heuristics do.
func (a *Agent) candidateSelectors(url, goal string) []candidate {
	var out []candidate
	seen := make(map[string]bool)

	if a.recommender != nil {
		for _, rec := range a.recommender.Recommend(url) {
			if len(out) == maxRecommended {
				break
			}
			if seen[rec.Selector] {
				continue
			}
			seen[rec.Selector] = true
			elementType := rec.ElementType
			if elementType == "" {
				elementType = "content"
			}
			out = append(out, candidate{selector: rec.Selector, elementType: elementType})
		}
	}

	for _, guess := range guessSelectors(goal) {
		if seen[guess.selector] {
			continue
		}
		seen[guess.selector] = true
		out = append(out, guess)
	}
	return out
}

// guessSelectors maps goal keywords to commonly used CSS selectors.
func guessSelectors(goal string) []candidate {
	lower := strings.ToLower(goal)
	var out []candidate
	if strings.Contains(lower, "price") {
		out = append(out,
			candidate{selector: ".price", elementType: "price"},
			candidate{selector: "[itemprop=price]", elementType: "price"},
			candidate{selector: ".product-price", elementType: "price"},
		)
	}
	if strings.Contains(lower, "title") || strings.Contains(lower, "headline") || strings.Contains(lower, "name") {
		out = append(out,
			candidate{selector: "h1", elementType: "title"},
			candidate{selector: ".title", elementType: "title"},
			candidate{selector: "[itemprop=name]", elementType: "title"},
		)
	}
	if strings.Contains(lower, "description") || strings.Contains(lower, "summary") {
		out = append(out,
			candidate{selector: "[itemprop=description]", elementType: "description"},
			candidate{selector: ".description", elementType: "description"},
			candidate{selector: "meta[name=description]", elementType: "description"},
		)
	}
	if strings.Contains(lower, "author") {
		out = append(out,
			candidate{selector: ".author", elementType: "author"},
			candidate{selector: "[rel=author]", elementType: "author"},
		)
	}
	if len(out) == 0 {
		out = append(out,
			candidate{selector: "h1", elementType: "title"},
			candidate{selector: "main", elementType: "content"},
			candidate{selector: "body", elementType: "content"},
		)
	}
	return out
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("scrape canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("fetch failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
