package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/listingwatch/internal/crawler"
)

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	b, err := NewRedisBackend(ctx, "localhost:6379", 0, "listingwatch_test")
	if err != nil {
		t.Skip("Redis is not available, skipping test")
	}
	defer b.Close()
	defer b.client.Del(ctx, b.seenKey(), b.activeKey(), b.summaryKey())

	state := NewState()
	l := crawler.Listing{Title: "Wegner PP550", URL: "https://lauritz.example/lot/1", Kind: crawler.KindItem}
	state.Add("h1", l, now)
	state.Add("h2", l, now)
	state.Observe("h1", l, now)
	state.LastSummary = "2025-03-02"
	require.NoError(t, b.Save(ctx, state))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Seen, 2)
	assert.True(t, loaded.Seen["h1"].FirstSeen.Equal(now))
	assert.Equal(t, "Wegner PP550", loaded.Active["h1"].Listing.Title)
	assert.Equal(t, "2025-03-02", loaded.LastSummary)

	state.Forget("h2")
	require.NoError(t, b.Save(ctx, state))
	loaded, err = b.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.Has("h2"))
}
