package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityHashConcert(t *testing.T) {
	a := Listing{Title: "Bon Iver", Venue: "Royal Arena", Date: "12 Mar 2025", City: "København", Term: "Bon Iver", Kind: KindConcert, URL: "https://a.example/1"}
	b := a
	b.Title = "BON IVER - SABLE, fABLE tour"
	b.URL = "https://b.example/xyz"
	b.Venue = " royal   arena "

	assert.Equal(t, a.IdentityHash(), b.IdentityHash())
	assert.Len(t, a.IdentityHash(), 40)

	c := a
	c.Date = "13 Mar 2025"
	assert.NotEqual(t, a.IdentityHash(), c.IdentityHash())
}

func TestIdentityHashConcertWithoutVenueOrDate(t *testing.T) {
	a := Listing{Title: "Bon Iver", Term: "Bon Iver", Kind: KindConcert, URL: "https://a.example/1"}
	b := a
	b.URL = "https://a.example/2"
	assert.NotEqual(t, a.IdentityHash(), b.IdentityHash())
}

func TestIdentityHashConcertMissingOneField(t *testing.T) {
	a := Listing{Title: "Bon Iver", Venue: "Royal Arena", Term: "Bon Iver", Kind: KindConcert, URL: "https://a.example/event/1"}
	b := a
	b.URL = "https://a.example/event/2"
	assert.NotEqual(t, a.IdentityHash(), b.IdentityHash())

	b.URL = "https://A.example/event/1/?utm_source=mail"
	assert.Equal(t, a.IdentityHash(), b.IdentityHash())

	c := Listing{Title: "Bon Iver", Date: "12 Mar 2025", Term: "Bon Iver", Kind: KindConcert, URL: "https://a.example/event/1"}
	d := c
	d.URL = "https://a.example/event/3"
	assert.NotEqual(t, c.IdentityHash(), d.IdentityHash())
}

func TestIdentityHashItem(t *testing.T) {
	a := Listing{Title: "Wegner PP550", Term: "Peacock", Kind: KindItem, URL: "https://Auction.example/lot/77/?utm_source=x#bids"}
	b := Listing{Title: "Wegner PP550 Peacock chair (relisted)", Term: "Peacock", Kind: KindItem, URL: "https://auction.example/lot/77"}
	assert.Equal(t, a.IdentityHash(), b.IdentityHash())

	noURL := Listing{Title: "Wegner PP550", Term: "Peacock", Kind: KindItem}
	assert.NotEqual(t, a.IdentityHash(), noURL.IdentityHash())

	concert := a
	concert.Kind = KindConcert
	assert.NotEqual(t, a.IdentityHash(), concert.IdentityHash())
}

func TestCanonicalURL(t *testing.T) {
	cases := map[string]string{
		"":                                          "",
		"HTTPS://Example.COM/Lot/1/":                "https://example.com/Lot/1",
		"https://example.com/lot?id=2&utm_medium=a": "https://example.com/lot?id=2",
		"https://example.com/lot?b=2&a=1&fbclid=z":  "https://example.com/lot?a=1&b=2",
		"https://example.com/lot?reference=7#top":   "https://example.com/lot?reference=7",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalURL(in), in)
	}
}
