package store

import (
	"context"
	"slices"
	"strings"
	"time"

	"sjsage522/listingwatch/config"
	"sjsage522/listingwatch/helpers"
	"sjsage522/listingwatch/internal/crawler"
	apperrors "sjsage522/listingwatch/pkg/errors"
)

const seenTitleLimit = 80

// SeenEntry records when a listing identity was first reported
type SeenEntry struct {
	FirstSeen time.Time `json:"first_seen"`
	Title     string    `json:"title,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// ActiveEntry is the latest observation of a listing, kept for periodic summaries
type ActiveEntry struct {
	Hash     string          `json:"hash"`
	Listing  crawler.Listing `json:"listing"`
	LastSeen time.Time       `json:"last_seen"`
}

// State is the persisted dedup state: every identity ever reported, the
// currently listed items and the day (2006-01-02) the last summary went out
type State struct {
	Seen        map[string]SeenEntry   `json:"seen"`
	Active      map[string]ActiveEntry `json:"active"`
	LastSummary string                 `json:"last_summary,omitempty"`
}

// NewState returns an empty state
func NewState() *State {
	return &State{
		Seen:   make(map[string]SeenEntry),
		Active: make(map[string]ActiveEntry),
	}
}

// Has reports whether hash was reported before
func (s *State) Has(hash string) bool {
	_, ok := s.Seen[hash]
	return ok
}

// Add marks hash as reported at now
func (s *State) Add(hash string, l crawler.Listing, now time.Time) {
	s.Seen[hash] = SeenEntry{
		FirstSeen: now,
		Title:     helpers.Truncate(l.Title, seenTitleLimit),
		Source:    l.Site,
	}
}

// Observe overwrites the active entry for hash with the latest sighting
func (s *State) Observe(hash string, l crawler.Listing, now time.Time) {
	s.Active[hash] = ActiveEntry{Hash: hash, Listing: l, LastSeen: now}
}

// Forget removes hash from the seen set so the next run reports it again
func (s *State) Forget(hash string) {
	delete(s.Seen, hash)
}

// Prune drops active entries not observed since cutoff and returns how many were removed
func (s *State) Prune(cutoff time.Time) int {
	removed := 0
	for hash, entry := range s.Active {
		if entry.LastSeen.Before(cutoff) {
			delete(s.Active, hash)
			removed++
		}
	}
	return removed
}

// ActiveEntries returns the active store ordered by site, title and URL
func (s *State) ActiveEntries() []ActiveEntry {
	out := make([]ActiveEntry, 0, len(s.Active))
	for _, entry := range s.Active {
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b ActiveEntry) int {
		if c := strings.Compare(a.Listing.Site, b.Listing.Site); c != 0 {
			return c
		}
		if c := strings.Compare(a.Listing.Title, b.Listing.Title); c != 0 {
			return c
		}
		if c := strings.Compare(a.Listing.URL, b.Listing.URL); c != 0 {
			return c
		}
		return strings.Compare(a.Hash, b.Hash)
	})
	return out
}

// Backend loads and saves State
type Backend interface {
	// Load returns the stored state; a missing store is an empty state
	Load(ctx context.Context) (*State, error)

	// Save replaces the stored state with s
	Save(ctx context.Context, s *State) error

	// Close releases any connection held by the backend
	Close() error
}

// Open creates the backend selected by cfg.StoreBackend
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreFile, "":
		return NewFileBackend(cfg.StateFile), nil
	case config.StoreRedis:
		return NewRedisBackend(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisStatePrefix)
	case config.StorePostgres:
		return NewPostgresBackend(ctx, cfg.PostgresDSN)
	default:
		return nil, apperrors.NewConfiguration("unknown store backend "+cfg.StoreBackend, nil)
	}
}
