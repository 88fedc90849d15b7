package crawler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"sjsage522/listingwatch/config"
	"sjsage522/listingwatch/helpers"
	"sjsage522/listingwatch/logger"
	apperrors "sjsage522/listingwatch/pkg/errors"
	"sjsage522/listingwatch/services/cache"
)

// SiteCrawler runs the extraction pipeline for one site profile
type SiteCrawler struct {
	BaseCrawler
	Profile   *SiteProfile
	fetchFunc FetchFunc
	log       *logger.Logger
}

// NewSiteCrawler creates a crawler for profile; browser profiles render through Chrome
func NewSiteCrawler(profile *SiteProfile, cacheSvc cache.CacheService, chromeAddr string) *SiteCrawler {
	c := &SiteCrawler{
		BaseCrawler: BaseCrawler{
			Provider:  profile.ID,
			CacheKey:  profile.ID + "_rate_limited",
			CacheSvc:  cacheSvc,
			BlockTime: time.Duration(profile.BlockTime) * time.Second,
		},
		Profile: profile,
		log:     logger.ForCrawler(profile.ID),
	}

	if profile.Fetcher == "browser" {
		c.log.Debug().Msg("Using headless browser fetch")
		c.fetchFunc = NewBrowserFetcher(chromeAddr)
	} else {
		c.fetchFunc = helpers.FetchWithRandomHeaders
	}

	return c
}

// GetName returns the crawler's display name
func (c *SiteCrawler) GetName() string {
	return c.Profile.Name
}

// SearchURL substitutes the escaped query into the profile's search template.
// A token in the path is path-escaped (spaces as %20), one in the query string
// is query-escaped (spaces as +).
func (c *SiteCrawler) SearchURL(term SearchTerm) string {
	query := term.QueryString()
	parts := strings.Split(c.Profile.SearchURL, config.QueryToken)

	var b strings.Builder
	inQuery := false
	for i, part := range parts {
		if i > 0 {
			if inQuery {
				b.WriteString(url.QueryEscape(query))
			} else {
				b.WriteString(url.PathEscape(query))
			}
		}
		b.WriteString(part)
		inQuery = inQuery || strings.Contains(part, "?")
	}
	return b.String()
}

// Crawl fetches the search page for term and returns the validated, normalized listings.
// Failures are reported in the result, never panicked or propagated.
func (c *SiteCrawler) Crawl(ctx context.Context, term SearchTerm) Result {
	result := Result{SiteID: c.Profile.ID, Term: term.Label()}
	pageURL := c.SearchURL(term)

	body, err := c.fetchWithCache(ctx, pageURL, c.fetchFunc)
	if err != nil {
		result.Err = err
		return result
	}

	candidates, err := Extract(body, c.Profile, term)
	if err != nil {
		result.Err = apperrors.NewParsing(c.Profile.ID, "extract candidates", err)
		return result
	}

	nctx := NormalizeContext{PageURL: pageURL, Profile: c.Profile, Term: term}
	seen := 0
	for cand := range candidates {
		seen++
		if !Validate(cand.Text, term) {
			continue
		}
		listing := Normalize(cand, nctx)
		if !listing.Acceptable() {
			continue
		}
		result.Listings = append(result.Listings, listing)
	}

	c.log.Debug().
		Str("term", term.Label()).
		Int("candidates", seen).
		Int("accepted", len(result.Listings)).
		Msg("Crawled")

	return result
}
