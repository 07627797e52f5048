// Package headless implements the scraping agent on a real browser via
// chromedp, for pages that require JavaScript to render.
package headless

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/pagehound/scraperd/internal/scraper"
)

// Config controls the behavior of the headless agent.
type Config struct {
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
}

// Agent implements scraper.Agent using chromedp and headless Chrome.
type Agent struct {
	cfg         Config
	recommender scraper.Recommender
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// New creates a headless agent backed by chromedp.
func New(cfg Config, recommender scraper.Recommender, logger *zap.Logger) (*Agent, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Agent{
		cfg:         cfg,
		recommender: recommender,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context.
func (a *Agent) Close() {
	a.allocCancel()
}

// Scrape navigates with a headless browser, waits for the document to
// settle, and extracts the goal by trying candidate selectors against
// the rendered DOM.
func (a *Agent) Scrape(ctx context.Context, url string, goal string) (scraper.Result, error) {
	if err := a.acquire(ctx); err != nil {
		return scraper.Result{}, err
	}
	defer a.release()

	taskCtx, taskCancel := chromedp.NewContext(a.allocator)
	defer taskCancel()
	taskCtx, cancel := context.WithTimeout(taskCtx, a.cfg.NavigationTimeout)
	defer cancel()

	// Tie the browser task to the caller's context so batch
	// cancellation tears the navigation down.
	go func() {
		select {
		case <-ctx.Done():
			taskCancel()
		case <-taskCtx.Done():
		}
	}()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if a.cfg.UserAgent != "" {
		actions = append(
			[]chromedp.Action{emulation.SetUserAgentOverride(a.cfg.UserAgent)},
			actions...,
		)
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return scraper.Result{}, fmt.Errorf("headless scrape canceled: %w", ctx.Err())
		}
		return scraper.Result{}, fmt.Errorf("headless navigate: %w", err)
	}

	candidates := a.candidateSelectors(url, goal)
	data := make(map[string]string)
	usages := make([]scraper.SelectorUsage, 0, len(candidates))
	for _, cand := range candidates {
		text, err := extractText(taskCtx, cand.selector)
		hit := err == nil && text != ""
		if hit {
			if _, taken := data[cand.elementType]; !taken {
				data[cand.elementType] = text
			}
		}
		usages = append(usages, scraper.SelectorUsage{
			Selector:    cand.selector,
			ElementType: cand.elementType,
			Success:     hit,
		})
	}

	a.logger.Debug("headless page scraped", zap.String("url", url), zap.Int("matched", len(data)))
	return scraper.Result{
		Success:       len(data) > 0,
		Data:          data,
		ActionsTaken:  len(candidates) + 2,
		SelectorsUsed: usages,
		HTML:          []byte(html),
	}, nil
}

type candidate struct {
	selector    string
	elementType string
}

func (a *Agent) candidateSelectors(url, goal string) []candidate {
	var out []candidate
	seen := make(map[string]bool)
	if a.recommender != nil {
		for _, rec := range a.recommender.Recommend(url) {
			if len(out) == 5 {
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
	for _, guess := range goalGuesses(goal) {
		if seen[guess.selector] {
			continue
		}
		seen[guess.selector] = true
		out = append(out, guess)
	}
	return out
}

func goalGuesses(goal string) []candidate {
	lower := strings.ToLower(goal)
	var out []candidate
	if strings.Contains(lower, "price") {
		out = append(out,
			candidate{selector: ".price", elementType: "price"},
			candidate{selector: "[itemprop=price]", elementType: "price"},
		)
	}
	if strings.Contains(lower, "title") || strings.Contains(lower, "name") {
		out = append(out,
			candidate{selector: "h1", elementType: "title"},
			candidate{selector: "[itemprop=name]", elementType: "title"},
		)
	}
	if len(out) == 0 {
		out = append(out,
			candidate{selector: "h1", elementType: "title"},
			candidate{selector: "main", elementType: "content"},
		)
	}
	return out
}

// extractText evaluates the selector in the page; a missing element
// yields an empty string, not an error.
func extractText(ctx context.Context, selector string) (string, error) {
	var text string
	script := fmt.Sprintf(
		`(function(){var el=document.querySelector(%q);return el?el.textContent.trim():"";})()`,
		selector,
	)
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &text)); err != nil {
		return "", fmt.Errorf("evaluate selector %q: %w", selector, err)
	}
	return text, nil
}

func (a *Agent) acquire(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	select {
	case a.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait: %w", ctx.Err())
	}
}

func (a *Agent) release() {
	if a.limiter == nil {
		return
	}
	<-a.limiter
}
