package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	base := "https://www.billetlugen.dk/search?q=bon+iver"

	cases := []struct {
		href string
		want string
	}{
		{"", ""},
		{"https://example.com/event/1", "https://example.com/event/1"},
		{"http://example.com/event/1", "http://example.com/event/1"},
		{"//cdn.example.com/event/1", "https://cdn.example.com/event/1"},
		{"https:///example.com/event/1", "https://example.com/event/1"},
		{"http:///example.com/event/1", "https://example.com/event/1"},
		{"https:/example.com/event/1", "https://example.com/event/1"},
		{"://example.com/event/1", "https://example.com/event/1"},
		{"www.example.com/event/1", "https://www.example.com/event/1"},
		{"/event/42", "https://www.billetlugen.dk/event/42"},
		{"event/42", "https://www.billetlugen.dk/event/42"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveURL(tc.href, base), tc.href)
	}
}

func TestExtractDate(t *testing.T) {
	cases := map[string]string{
		"Vega, 12 Mar 2025 kl. 20":    "12 Mar 2025",
		"Doors: March 12, 2025":       "March 12, 2025",
		"Dato 12/03/2025":             "12/03/2025",
		"Dato 12.03.25 Store Vega":    "12.03.25",
		"ISO 2025-03-12 start":        "2025-03-12",
		"den 5. oktober 2025, Aarhus": "5. oktober 2025",
	}
	for text, want := range cases {
		got, ok := ExtractDate(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := ExtractDate("no date here")
	assert.False(t, ok)
}

func TestExtractPrice(t *testing.T) {
	cases := map[string]string{
		"Billetter fra 450 kr. inkl. gebyr": "fra 450 kr.",
		"Pris 1.250,- eller bud":            "1.250,-",
		"Now € 95,00":                       "€ 95,00",
		"Only £45":                          "£45",
		"SEK 1 200 incl.":                   "SEK 1 200",
		"NOK 800":                           "NOK 800",
		"Price $1,200.00":                   "$1,200.00",
		"DKK price: 300 DKK":                "300 DKK",
		"Billetter 1200 kr.":                "1200 kr.",
		"Pris 2500 DKK":                     "2500 DKK",
		"Now €1500":                         "€1500",
		"SEK 1500":                          "SEK 1500",
		"Price $1500":                       "$1500",
		"fra 12 500 kr":                     "fra 12 500 kr",
	}
	for text, want := range cases {
		got, ok := ExtractPrice(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}

	_, ok := ExtractPrice("free entry")
	assert.False(t, ok)
}

func TestExtractVenue(t *testing.T) {
	venue, ok := ExtractVenue("Bon Iver\nVenue: Royal Arena\n12 Mar 2025")
	assert.True(t, ok)
	assert.Equal(t, "Royal Arena", venue)

	venue, ok = ExtractVenue("Spillested: Store Vega | 20:00")
	assert.True(t, ok)
	assert.Equal(t, "Store Vega", venue)

	_, ok = ExtractVenue("no venue label")
	assert.False(t, ok)
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, StatusSoldOut, ClassifyStatus("UDSOLGT - presale ended"))
	assert.Equal(t, StatusSoldOut, ClassifyStatus("Sold  out"))
	assert.Equal(t, StatusSoldOut, ClassifyStatus("Ausverkauft"))
	assert.Equal(t, StatusPresale, ClassifyStatus("Pre-sale starts Friday"))
	assert.Equal(t, StatusPresale, ClassifyStatus("Førsalg"))
	assert.Equal(t, StatusAvailable, ClassifyStatus("Tickets available"))
}

func TestNormalize(t *testing.T) {
	profile := &SiteProfile{ID: "vega", Name: "Vega", Region: "DK"}
	term := SearchTerm{Name: "Bon Iver", Category: "Indie", Kind: KindConcert}
	c := Candidate{
		Title: "  Bon   Iver ",
		Link:  "/event/1",
		Text:  "Bon Iver Venue: Store Vega\n12 Mar 2025 Billetter 450 kr. Udsolgt",
	}

	l := Normalize(c, NormalizeContext{PageURL: "https://vega.dk/search?q=x", Profile: profile, Term: term})
	assert.Equal(t, Listing{
		Title:    "Bon Iver",
		URL:      "https://vega.dk/event/1",
		Venue:    "Store Vega",
		Date:     "12 Mar 2025",
		Price:    "450 kr.",
		Status:   StatusSoldOut,
		Site:     "Vega",
		SiteID:   "vega",
		Term:     "Bon Iver",
		Category: "Indie",
		Region:   "DK",
		Kind:     KindConcert,
	}, l)
	assert.True(t, l.Acceptable())
}

func TestNormalizeItemSkipsVenueBackfill(t *testing.T) {
	term := SearchTerm{Terms: []string{"Wegner", "PP550"}, Kind: KindItem}
	c := Candidate{Title: "Wegner PP550", Text: "Wegner PP550 Location: Vejle"}

	l := Normalize(c, NormalizeContext{Term: term})
	assert.Empty(t, l.Venue)
	assert.Equal(t, "Wegner PP550", l.Term)
	assert.False(t, l.Acceptable())
}

func TestListingAcceptable(t *testing.T) {
	assert.False(t, Listing{URL: "https://a"}.Acceptable())
	assert.True(t, Listing{Title: "x", URL: "https://a", Kind: KindItem}.Acceptable())
	assert.True(t, Listing{Title: "x", Venue: "Vega", Kind: KindConcert}.Acceptable())
	assert.False(t, Listing{Title: "x", Venue: "Vega", Kind: KindItem}.Acceptable())
}
