package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash_URLDigest(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("https://example.com/products/42"))
	require.NoError(t, err)
	require.Equal(t, "c8aa0b741f5161f01c3613bfdd8b38edce31e62d403289e7996d7f1629efceeb", got)
	require.Len(t, got, 64)
}

func TestHash_DistinctURLsDistinctDigests(t *testing.T) {
	t.Parallel()

	h := New()
	first, err := h.Hash([]byte("https://example.com/a"))
	require.NoError(t, err)
	second, err := h.Hash([]byte("https://example.com/b"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	again, err := h.Hash([]byte("https://example.com/a"))
	require.NoError(t, err)
	require.Equal(t, first, again)
}
