package dedupe

import (
	"time"

	"sjsage522/listingwatch/internal/crawler"
	"sjsage522/listingwatch/services/store"
)

// Item is a listing reported for the first time, with its identity hash
type Item struct {
	Listing crawler.Listing
	Hash    string
}

// Dedupe returns the listings whose identity has not been reported before, in
// input order. Repeats within the batch collapse to their first occurrence.
// Every listing refreshes its active entry; new ones are recorded as seen at now.
func Dedupe(listings []crawler.Listing, state *store.State, now time.Time) []Item {
	var out []Item
	for _, l := range listings {
		hash := l.IdentityHash()
		state.Observe(hash, l, now)
		if state.Has(hash) {
			continue
		}
		state.Add(hash, l, now)
		out = append(out, Item{Listing: l, Hash: hash})
	}
	return out
}

// Forget removes items from the seen set so a later run reports them again
func Forget(items []Item, state *store.State) {
	for _, item := range items {
		state.Forget(item.Hash)
	}
}

// Listings unwraps items
func Listings(items []Item) []crawler.Listing {
	out := make([]crawler.Listing, 0, len(items))
	for _, item := range items {
		out = append(out, item.Listing)
	}
	return out
}
