package report

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"time"

	"sjsage522/listingwatch/config"
	"sjsage522/listingwatch/helpers"
	"sjsage522/listingwatch/internal/crawler"
	"sjsage522/listingwatch/services/store"
)

const (
	defaultTitleLimit = 100
	otherGroup        = "Other"
)

// Family is a named report bucket matched by keyword
type Family struct {
	Name     string
	Keywords []string
}

// Document is a rendered report
type Document struct {
	Subject  string
	HTML     string
	Text     string
	NewCount int
}

// Reporter renders new listings, and on the summary day the active store, into a Document
type Reporter struct {
	Families       []Family
	TitleLimit     int
	SummaryEnabled bool
	SummaryWeekday time.Weekday
}

// New creates a reporter from the search document's families and options.
// An empty summaryWeekday disables the periodic summary.
func New(families []config.FamilyConfig, titleLimit int, summaryWeekday string) *Reporter {
	r := &Reporter{TitleLimit: titleLimit}
	for _, f := range families {
		r.Families = append(r.Families, Family{Name: f.Name, Keywords: f.Keywords})
	}
	if day, ok := config.ParseWeekday(summaryWeekday); ok {
		r.SummaryEnabled = true
		r.SummaryWeekday = day
	}
	return r
}

// SummaryDue reports whether the active-store summary belongs in the report sent at now
func (r *Reporter) SummaryDue(now time.Time) bool {
	return r.SummaryEnabled && now.Weekday() == r.SummaryWeekday
}

type row struct {
	Title       string
	URL         string
	Venue       string
	City        string
	Date        string
	Price       string
	Status      string
	StatusClass string
	Site        string
	Region      string
}

type group struct {
	Name string
	Rows []row
}

type view struct {
	Heading  string
	Date     string
	New      []group
	NewCount int
	Summary  []group
}

// Render returns nil when there is nothing to report. The output depends only
// on its arguments.
func (r *Reporter) Render(newItems []crawler.Listing, summary []store.ActiveEntry, now time.Time) *Document {
	if len(newItems) == 0 && len(summary) == 0 {
		return nil
	}

	active := make([]crawler.Listing, 0, len(summary))
	for _, entry := range summary {
		active = append(active, entry.Listing)
	}

	v := view{
		Heading:  heading(len(newItems), len(active)),
		Date:     now.Format("January 02, 2006"),
		New:      r.group(newItems),
		NewCount: len(newItems),
		Summary:  r.group(active),
	}

	var html bytes.Buffer
	if err := reportTemplate.Execute(&html, v); err != nil {
		// the template is fixed and the view holds only strings
		panic(fmt.Sprintf("render report: %v", err))
	}

	return &Document{
		Subject:  subject(len(newItems), len(active), now),
		HTML:     html.String(),
		Text:     renderText(v),
		NewCount: len(newItems),
	}
}

func heading(newCount, activeCount int) string {
	if newCount == 0 {
		return fmt.Sprintf("Weekly summary: %s still listed", plural(activeCount, "listing"))
	}
	return fmt.Sprintf("Listing alert: %s", plural(newCount, "new listing"))
}

func subject(newCount, activeCount int, now time.Time) string {
	day := now.Format("Jan 02")
	if newCount == 0 {
		return fmt.Sprintf("Weekly summary: %s - %s", plural(activeCount, "active listing"), day)
	}
	return fmt.Sprintf("%s - %s", plural(newCount, "new listing"), day)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// groupName buckets a listing by family keyword, then category, then search term
func (r *Reporter) groupName(l crawler.Listing) string {
	haystack := strings.ToLower(l.Title + " " + l.Term)
	for _, f := range r.Families {
		for _, kw := range f.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(haystack, kw) {
				return f.Name
			}
		}
	}
	switch {
	case l.Category != "":
		return l.Category
	case l.Term != "":
		return l.Term
	default:
		return otherGroup
	}
}

func (r *Reporter) group(listings []crawler.Listing) []group {
	if len(listings) == 0 {
		return nil
	}

	sorted := slices.Clone(listings)
	slices.SortStableFunc(sorted, func(a, b crawler.Listing) int {
		if c := strings.Compare(a.Site, b.Site); c != 0 {
			return c
		}
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.URL, b.URL)
	})

	byName := make(map[string]*group)
	var names []string
	for _, l := range sorted {
		name := r.groupName(l)
		g, ok := byName[name]
		if !ok {
			g = &group{Name: name}
			byName[name] = g
			names = append(names, name)
		}
		g.Rows = append(g.Rows, r.row(l))
	}
	slices.Sort(names)

	out := make([]group, 0, len(names))
	for _, name := range names {
		out = append(out, *byName[name])
	}
	return out
}

func (r *Reporter) row(l crawler.Listing) row {
	limit := r.TitleLimit
	if limit <= 0 {
		limit = defaultTitleLimit
	}
	status := l.Status
	if status == "" {
		status = crawler.StatusAvailable
	}
	return row{
		Title:       helpers.Truncate(l.Title, limit),
		URL:         l.URL,
		Venue:       l.Venue,
		City:        l.City,
		Date:        l.Date,
		Price:       l.Price,
		Status:      string(status),
		StatusClass: statusClass(status),
		Site:        l.Site,
		Region:      l.Region,
	}
}

func statusClass(s crawler.Status) string {
	switch s {
	case crawler.StatusSoldOut:
		return "soldout"
	case crawler.StatusPresale:
		return "presale"
	default:
		return "available"
	}
}
