package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStorePutAndGet(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	uri, err := store.PutObject(context.Background(), "snaps/a.html", "text/html", []byte("<html/>"))
	require.NoError(t, err)
	require.Equal(t, "memory://snaps/a.html", uri)

	data, ok := store.GetObject("snaps/a.html")
	require.True(t, ok)
	require.Equal(t, "<html/>", string(data))

	// Mutating the returned slice must not touch the stored copy.
	data[0] = 'X'
	again, ok := store.GetObject("snaps/a.html")
	require.True(t, ok)
	require.Equal(t, "<html/>", string(again))
}

func TestBlobStoreMissingObject(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	_, ok := store.GetObject("missing")
	require.False(t, ok)
}
