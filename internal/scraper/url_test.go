package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestURLKey_Normalizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"strips default https port", "https://example.com:443/a", "https://example.com/a"},
		{"strips default http port", "http://example.com:80/a", "http://example.com/a"},
		{"keeps explicit port", "https://example.com:8443/a", "https://example.com:8443/a"},
		{"drops query", "https://example.com/a?page=2&sort=asc", "https://example.com/a"},
		{"drops fragment", "https://example.com/a#section", "https://example.com/a"},
		{"trims trailing slash", "https://example.com/a/", "https://example.com/a"},
		{"bare host", "https://example.com/", "https://example.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := URLKey(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestURLKey_Pure(t *testing.T) {
	t.Parallel()

	first, err := URLKey("https://example.com/products?id=7")
	require.NoError(t, err)
	second, err := URLKey("https://example.com/products?id=7")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestURLKey_RejectsRelative(t *testing.T) {
	t.Parallel()

	_, err := URLKey("/just/a/path")
	require.Error(t, err)

	_, err = URLKey("://bad")
	require.Error(t, err)
}

func TestSelectorStat_Confidence(t *testing.T) {
	t.Parallel()

	require.Zero(t, SelectorStat{}.Confidence())
	require.InDelta(t, 0.75, SelectorStat{Attempts: 4, Successes: 3}.Confidence(), 1e-9)
}
