package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/listingwatch/config"
	"sjsage522/listingwatch/internal/crawler"
	apperrors "sjsage522/listingwatch/pkg/errors"
)

var now = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

func TestStateSeen(t *testing.T) {
	s := NewState()
	l := crawler.Listing{Title: strings.Repeat("Bon Iver ", 10) + "Royal Arena", Site: "Vega"}

	assert.False(t, s.Has("h1"))
	s.Add("h1", l, now)
	assert.True(t, s.Has("h1"))
	assert.Equal(t, now, s.Seen["h1"].FirstSeen)
	assert.Equal(t, "Vega", s.Seen["h1"].Source)
	assert.Len(t, []rune(s.Seen["h1"].Title), 80)

	s.Forget("h1")
	assert.False(t, s.Has("h1"))
}

func TestStateActive(t *testing.T) {
	s := NewState()
	s.Observe("b", crawler.Listing{Title: "Wegner PP550", Site: "Lauritz"}, now.Add(-60*24*time.Hour))
	s.Observe("a", crawler.Listing{Title: "Bon Iver", Site: "Vega"}, now)
	s.Observe("c", crawler.Listing{Title: "Bon Iver", Site: "Billetlugen"}, now)

	entries := s.ActiveEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{entries[0].Hash, entries[1].Hash, entries[2].Hash})

	s.Observe("a", crawler.Listing{Title: "Bon Iver", Site: "Vega", Status: crawler.StatusSoldOut}, now.Add(time.Hour))
	assert.Equal(t, crawler.StatusSoldOut, s.Active["a"].Listing.Status)

	assert.Equal(t, 1, s.Prune(now.Add(-30*24*time.Hour)))
	assert.NotContains(t, s.Active, "b")
}

func TestOpen(t *testing.T) {
	cfg := config.LoadConfig()
	cfg.StateFile = t.TempDir() + "/state.json"

	b, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)

	cfg.StoreBackend = "bolt"
	_, err = Open(context.Background(), cfg)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}
