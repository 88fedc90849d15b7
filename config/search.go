package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"sjsage522/listingwatch/logger"
	apperrors "sjsage522/listingwatch/pkg/errors"
)

// QueryToken is replaced with the escaped search query in site search URLs
const QueryToken = "{query}"

// SearchConfig is the search document: what to look for and where
type SearchConfig struct {
	Artists  []ArtistConfig `json:"artists"`
	Searches []SearchEntry  `json:"searches"`
	Sites    []SiteConfig   `json:"sites"`
	Families []FamilyConfig `json:"families"`
	Options  OptionsConfig  `json:"options"`
}

// ArtistConfig is a single-name search with accepted spellings
type ArtistConfig struct {
	Name       string   `json:"name"`
	Variations []string `json:"variations"`
	Category   string   `json:"category"`
	Query      string   `json:"query"`
}

// SearchEntry is a composite search where every term must match
type SearchEntry struct {
	Terms       []string `json:"terms"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Query       string   `json:"query"`
}

// SelectorConfig lists candidate selectors per field, most specific first
type SelectorConfig struct {
	Container []string `json:"container"`
	Title     []string `json:"title"`
	Link      []string `json:"link"`
	Venue     []string `json:"venue"`
	City      []string `json:"city"`
	Date      []string `json:"date"`
	Price     []string `json:"price"`
}

// SiteConfig describes how to query and parse one website
type SiteConfig struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	BaseURL        string         `json:"base_url"`
	SearchURL      string         `json:"search_url"`
	Selectors      SelectorConfig `json:"selectors"`
	Region         string         `json:"region"`
	Enabled        *bool          `json:"enabled"`
	MaxResults     int            `json:"max_results"`
	Fetcher        string         `json:"fetcher"`
	StructuredData bool           `json:"structured_data"`
	BlockTime      int            `json:"block_time"`
}

// IsEnabled reports whether the site takes part in runs; sites are enabled by default
func (s SiteConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// FamilyConfig is a report bucket for a known furniture family
type FamilyConfig struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// OptionsConfig holds global search options
type OptionsConfig struct {
	MaxResults int `json:"max_results"`
	TitleLimit int `json:"title_limit"`
}

// LoadSearchConfig reads a JSON5 search document, merging <name>.local.<ext>
// over it when present, and validates the result
func LoadSearchConfig(path string) (*SearchConfig, error) {
	cfg, err := readSearchConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readSearchConfig(path string) (*SearchConfig, error) {
	var out SearchConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("read search config %q", path), err)
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("parse search config %q", path), err)
	}

	localPath := localName(path)
	localData, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("read search config %q", localPath), err)
	}
	if len(localData) > 0 {
		var override SearchConfig
		if err := json5.Unmarshal(localData, &override); err != nil {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("parse search config %q", localPath), err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return nil, apperrors.NewConfiguration("merge local search config", err)
		}
		logger.Info("merged search config with local overrides from %s", localPath)
	}

	return &out, nil
}

// localName turns dir/search.json5 into dir/search.local.json5
func localName(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+".local"+ext)
}

// Validate checks the search document
func (c *SearchConfig) Validate() error {
	if len(c.Artists) == 0 && len(c.Searches) == 0 {
		return apperrors.NewConfiguration("search config has no artists or searches", nil)
	}

	for i, a := range c.Artists {
		if strings.TrimSpace(a.Name) == "" {
			return apperrors.NewConfiguration(fmt.Sprintf("artists[%d] has no name", i), nil)
		}
	}
	for i, s := range c.Searches {
		if len(s.Terms) == 0 {
			return apperrors.NewConfiguration(fmt.Sprintf("searches[%d] has no terms", i), nil)
		}
		for _, term := range s.Terms {
			if strings.TrimSpace(term) == "" {
				return apperrors.NewConfiguration(fmt.Sprintf("searches[%d] has an empty term", i), nil)
			}
		}
	}

	seen := make(map[string]bool)
	enabled := 0
	for i, site := range c.Sites {
		if site.ID == "" {
			return apperrors.NewConfiguration(fmt.Sprintf("sites[%d] has no id", i), nil)
		}
		if seen[site.ID] {
			return apperrors.NewConfiguration(fmt.Sprintf("duplicate site id %q", site.ID), nil)
		}
		seen[site.ID] = true
		if !strings.Contains(site.SearchURL, QueryToken) {
			return apperrors.NewConfiguration(fmt.Sprintf("site %q search_url lacks %s", site.ID, QueryToken), nil)
		}
		switch site.Fetcher {
		case "", "http", "browser":
		default:
			return apperrors.NewConfiguration(fmt.Sprintf("site %q has unknown fetcher %q", site.ID, site.Fetcher), nil)
		}
		if site.IsEnabled() {
			enabled++
		}
	}
	if enabled == 0 {
		return apperrors.NewConfiguration("search config has no enabled sites", nil)
	}

	return nil
}
