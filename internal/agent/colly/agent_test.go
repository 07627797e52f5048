package collyagent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pagehound/scraperd/internal/scraper"
)

const productPage = `<!DOCTYPE html>
<html>
<head><title>Shop</title></head>
<body>
  <h1>Walnut Desk</h1>
  <div class="price">$249.00</div>
  <p class="description">A sturdy desk.</p>
</body>
</html>`

type fixedRecommender struct {
	recs []scraper.Recommendation
}

func (r *fixedRecommender) Recommend(string) []scraper.Recommendation {
	return r.recs
}

func newTestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAgent_Scrape_ExtractsByGoalHeuristics(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, productPage)
	agent := New(Config{Timeout: 5 * time.Second}, nil, nil)

	result, err := agent.Scrape(context.Background(), server.URL, "extract the price and title")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "$249.00", result.Data["price"])
	require.Equal(t, "Walnut Desk", result.Data["title"])
	require.NotEmpty(t, result.HTML)
}

func TestAgent_Scrape_ReportsMissesAsFailedUsage(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, `<html><body><h1>No price here</h1></body></html>`)
	agent := New(Config{}, nil, nil)

	result, err := agent.Scrape(context.Background(), server.URL, "extract the price")
	require.NoError(t, err)
	require.False(t, result.Success)

	byStatus := map[bool]int{}
	for _, usage := range result.SelectorsUsed {
		byStatus[usage.Success]++
	}
	require.Equal(t, len(result.SelectorsUsed), byStatus[false])
}

func TestAgent_Scrape_TriesRecommendationsFirst(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, `<html><body><span class="sale-tag">$9.99</span></body></html>`)
	recommender := &fixedRecommender{recs: []scraper.Recommendation{
		{Selector: ".sale-tag", ElementType: "price", Confidence: 0.9, Attempts: 10},
	}}
	agent := New(Config{}, recommender, nil)

	result, err := agent.Scrape(context.Background(), server.URL, "extract the price")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "$9.99", result.Data["price"])
	require.Equal(t, ".sale-tag", result.SelectorsUsed[0].Selector)
	require.True(t, result.SelectorsUsed[0].Success)
}

func TestAgent_Scrape_FetchErrorPropagates(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, "gone")
	url := server.URL
	server.Close()

	agent := New(Config{Timeout: time.Second}, nil, nil)
	_, err := agent.Scrape(context.Background(), url, "extract the price")
	require.Error(t, err)
}

func TestAgent_Scrape_HonorsContextCancellation(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-blocked
		_, _ = w.Write([]byte("late"))
	}))
	t.Cleanup(func() {
		close(blocked)
		server.Close()
	})

	agent := New(Config{Timeout: 10 * time.Second}, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := agent.Scrape(ctx, server.URL, "extract the title")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuessSelectors_FallsBack(t *testing.T) {
	t.Parallel()

	guesses := guessSelectors("grab whatever is there")
	require.NotEmpty(t, guesses)
	require.Equal(t, "h1", guesses[0].selector)
}
