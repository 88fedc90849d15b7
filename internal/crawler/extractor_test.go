package crawler

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bonIver = SearchTerm{Name: "Bon Iver", Kind: KindConcert}

func extractAll(t *testing.T, html string, profile *SiteProfile) []Candidate {
	t.Helper()
	seq, err := Extract(strings.NewReader(html), profile, bonIver)
	require.NoError(t, err)
	return slices.Collect(seq)
}

func TestExtractProfileSelectors(t *testing.T) {
	html := `<html><body>
		<div class="event-card">
			<h3 title="Bon Iver: Live">Bon Iver</h3>
			<a class="more" href="/event/1">Read more</a>
			<span class="venue">Royal Arena</span>
			<span class="date">12 Mar 2025</span>
		</div>
		<div class="event-card">
			<h3>Bon Iver (extra show)</h3>
			<a href="#">skip</a>
			<a href="/event/2">Tickets</a>
		</div>
		<script>var x = "<div class='event-card'>fake</div>";</script>
	</body></html>`

	profile := &SiteProfile{Selectors: FieldSelectors{
		Container: []string{"article.missing", "div.event-card"},
		Title:     []string{"h3"},
		Venue:     []string{"span.location", "span.venue"},
		Date:      []string{"span.date"},
	}}

	got := extractAll(t, html, profile)
	require.Len(t, got, 2)

	assert.Equal(t, "Bon Iver: Live", got[0].Title)
	assert.Equal(t, "/event/1", got[0].Link)
	assert.Equal(t, "Royal Arena", got[0].Venue)
	assert.Equal(t, "12 Mar 2025", got[0].Date)
	assert.Contains(t, got[0].Text, "Royal Arena")

	assert.Equal(t, "Bon Iver (extra show)", got[1].Title)
	assert.Equal(t, "/event/2", got[1].Link)
	assert.Empty(t, got[1].Venue)
}

func TestExtractGenericFallback(t *testing.T) {
	html := `<html><body>
		<ul>
			<li class="search-result"><h2>Wegner PP550</h2><a href="/about">about</a><a href="/lot/77">lot</a></li>
			<li class="other">Wegner chair</li>
		</ul>
	</body></html>`

	got := extractAll(t, html, &SiteProfile{Selectors: FieldSelectors{Container: []string{"div.lot"}}})
	require.Len(t, got, 1)
	assert.Equal(t, "Wegner PP550", got[0].Title)
	assert.Equal(t, "/lot/77", got[0].Link)
}

func TestExtractContainerIsAnchor(t *testing.T) {
	html := `<html><body><a class="item" href="https://auction.example/lot/9"><strong>PP550</strong></a></body></html>`

	got := extractAll(t, html, &SiteProfile{Selectors: FieldSelectors{Container: []string{"a.item"}}})
	require.Len(t, got, 1)
	assert.Equal(t, "PP550", got[0].Title)
	assert.Equal(t, "https://auction.example/lot/9", got[0].Link)
}

func TestExtractRespectsLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 80; i++ {
		b.WriteString(`<div class="row"><h4>Bon Iver</h4></div>`)
	}
	b.WriteString("</body></html>")

	profile := &SiteProfile{Selectors: FieldSelectors{Container: []string{"div.row"}}}
	assert.Len(t, extractAll(t, b.String(), profile), defaultMaxResults)

	profile.MaxResults = 3
	assert.Len(t, extractAll(t, b.String(), profile), 3)

	profile.MaxResults = 500
	assert.Len(t, extractAll(t, b.String(), profile), maxResultsCeiling)
}

func TestExtractTitleFallsBackToHeadings(t *testing.T) {
	html := `<html><body>
		<div class="event"><span class="name">Bon Iver</span><a href="/e/1">Tickets</a></div>
		<div class="event"><h4>Bon Iver, Royal Arena</h4><a href="/e/2">Tickets</a></div>
	</body></html>`
	profile := &SiteProfile{Selectors: FieldSelectors{Container: []string{"div.event"}, Title: []string{"span.name"}}}

	got := extractAll(t, html, profile)
	require.Len(t, got, 2)
	assert.Equal(t, "Bon Iver", got[0].Title)
	assert.Equal(t, "Bon Iver, Royal Arena", got[1].Title)
}

func TestExtractNothingFound(t *testing.T) {
	got := extractAll(t, `<html><body><p>No results</p></body></html>`, &SiteProfile{})
	assert.Empty(t, got)
}

func TestExtractStopsEarly(t *testing.T) {
	html := `<html><body><div class="item"><h2>A</h2></div><div class="item"><h2>B</h2></div></body></html>`
	seq, err := Extract(strings.NewReader(html), &SiteProfile{}, bonIver)
	require.NoError(t, err)

	var titles []string
	for c := range seq {
		titles = append(titles, c.Title)
		break
	}
	assert.Equal(t, []string{"A"}, titles)
}
