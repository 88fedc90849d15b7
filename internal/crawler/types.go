package crawler

import (
	"context"
	"io"
	"strings"
)

// Status is the availability of a listing
type Status string

const (
	StatusAvailable Status = "Available"
	StatusSoldOut   Status = "Sold Out"
	StatusPresale   Status = "Presale"
)

// Kind selects identity fields and acceptance rules for a listing
type Kind string

const (
	KindConcert Kind = "concert"
	KindItem    Kind = "item"
)

// FieldSelectors holds candidate CSS selectors per field, most site-specific first
type FieldSelectors struct {
	Container []string
	Title     []string
	Link      []string
	Venue     []string
	City      []string
	Date      []string
	Price     []string
}

// SiteProfile is the static description of how to query and parse one site
type SiteProfile struct {
	ID             string
	Name           string
	BaseURL        string
	SearchURL      string
	Selectors      FieldSelectors
	Region         string
	Enabled        bool
	MaxResults     int
	Fetcher        string
	StructuredData bool
	BlockTime      int
}

// SearchTerm is either a single name with variations or a composite of terms that must all match
type SearchTerm struct {
	Name        string
	Variations  []string
	Terms       []string
	Description string
	Category    string
	Query       string
	Kind        Kind
}

// IsComposite reports whether every term in Terms must match
func (t SearchTerm) IsComposite() bool {
	return len(t.Terms) > 0
}

// Label is the human-readable name of the search
func (t SearchTerm) Label() string {
	switch {
	case t.Description != "":
		return t.Description
	case t.Name != "":
		return t.Name
	default:
		return strings.Join(t.Terms, " ")
	}
}

// QueryString is the text sent to the site's search
func (t SearchTerm) QueryString() string {
	switch {
	case t.Query != "":
		return t.Query
	case t.IsComposite():
		return strings.Join(t.Terms, " ")
	default:
		return t.Name
	}
}

// Candidate is a partial listing pulled out of one container
type Candidate struct {
	Title string
	Link  string
	Venue string
	City  string
	Date  string
	Price string
	// Text is the container's visible text, used for validation and backfill
	Text string
}

// Listing is a validated, normalized result
type Listing struct {
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Venue    string `json:"venue,omitempty"`
	City     string `json:"city,omitempty"`
	Date     string `json:"date,omitempty"`
	Price    string `json:"price,omitempty"`
	Status   Status `json:"status"`
	Site     string `json:"site"`
	SiteID   string `json:"site_id"`
	Term     string `json:"term"`
	Category string `json:"category,omitempty"`
	Region   string `json:"region,omitempty"`
	Kind     Kind   `json:"kind"`
}

// Acceptable reports whether the listing carries the minimum fields to be reported
func (l Listing) Acceptable() bool {
	if l.Title == "" {
		return false
	}
	if l.URL != "" {
		return true
	}
	return l.Kind == KindConcert && l.Venue != ""
}

// Result is the outcome of one (site, term) pair
type Result struct {
	SiteID   string
	Term     string
	Listings []Listing
	Err      error
}

// Crawler searches one site for a term
type Crawler interface {
	// Crawl fetches, extracts, validates and normalizes listings for term
	Crawl(ctx context.Context, term SearchTerm) Result

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetProvider returns the site ID the crawler serves
	GetProvider() string
}

// FetchFunc fetches a page and returns its UTF-8 body
type FetchFunc func(ctx context.Context, url string) (io.Reader, error)
