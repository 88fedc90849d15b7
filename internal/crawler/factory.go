package crawler

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"

	"sjsage522/listingwatch/config"
	"sjsage522/listingwatch/logger"
	apperrors "sjsage522/listingwatch/pkg/errors"
	"sjsage522/listingwatch/services/cache"
)

// BuildProfiles resolves the configured sites into profiles keyed by ID and
// returns the IDs in document order. Every selector is compiled up front so a
// typo fails at startup instead of silently matching nothing.
func BuildProfiles(cfg *config.SearchConfig) (map[string]*SiteProfile, []string, error) {
	profiles := make(map[string]*SiteProfile, len(cfg.Sites))
	order := make([]string, 0, len(cfg.Sites))

	for _, site := range cfg.Sites {
		p := &SiteProfile{
			ID:        site.ID,
			Name:      site.Name,
			BaseURL:   site.BaseURL,
			SearchURL: site.SearchURL,
			Selectors: FieldSelectors{
				Container: site.Selectors.Container,
				Title:     site.Selectors.Title,
				Link:      site.Selectors.Link,
				Venue:     site.Selectors.Venue,
				City:      site.Selectors.City,
				Date:      site.Selectors.Date,
				Price:     site.Selectors.Price,
			},
			Region:         site.Region,
			Enabled:        site.IsEnabled(),
			MaxResults:     site.MaxResults,
			Fetcher:        site.Fetcher,
			StructuredData: site.StructuredData,
			BlockTime:      site.BlockTime,
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if p.MaxResults == 0 {
			p.MaxResults = cfg.Options.MaxResults
		}
		if err := p.Selectors.compile(); err != nil {
			return nil, nil, apperrors.NewConfiguration(fmt.Sprintf("site %q", p.ID), err)
		}

		profiles[p.ID] = p
		order = append(order, p.ID)
	}

	return profiles, order, nil
}

func (fs FieldSelectors) compile() error {
	fields := map[string][]string{
		"container": fs.Container,
		"title":     fs.Title,
		"link":      fs.Link,
		"venue":     fs.Venue,
		"city":      fs.City,
		"date":      fs.Date,
		"price":     fs.Price,
	}
	for _, name := range []string{"container", "title", "link", "venue", "city", "date", "price"} {
		for _, selector := range fields[name] {
			if strings.TrimSpace(selector) == "" {
				return fmt.Errorf("empty %s selector", name)
			}
			if _, err := cascadia.Compile(selector); err != nil {
				return fmt.Errorf("invalid %s selector %q: %w", name, selector, err)
			}
		}
	}
	return nil
}

// BuildTerms flattens artists and composite searches into one ordered term list
func BuildTerms(cfg *config.SearchConfig) []SearchTerm {
	terms := make([]SearchTerm, 0, len(cfg.Artists)+len(cfg.Searches))
	for _, a := range cfg.Artists {
		terms = append(terms, SearchTerm{
			Name:       a.Name,
			Variations: a.Variations,
			Category:   a.Category,
			Query:      a.Query,
			Kind:       KindConcert,
		})
	}
	for _, s := range cfg.Searches {
		terms = append(terms, SearchTerm{
			Terms:       s.Terms,
			Description: s.Description,
			Category:    s.Category,
			Query:       s.Query,
			Kind:        KindItem,
		})
	}
	return terms
}

// CreateCrawlers creates a crawler for every enabled profile, in order
func CreateCrawlers(profiles map[string]*SiteProfile, order []string, cacheSvc cache.CacheService, chromeAddr string) []Crawler {
	var crawlers []Crawler
	for _, id := range order {
		p, ok := profiles[id]
		if !ok || !p.Enabled {
			continue
		}
		crawlers = append(crawlers, NewSiteCrawler(p, cacheSvc, chromeAddr))
	}

	logger.Info("Created %d crawlers", len(crawlers))
	for i, c := range crawlers {
		logger.Debug("Crawler %d: %s (%s)", i, c.GetName(), c.GetProvider())
	}

	return crawlers
}
