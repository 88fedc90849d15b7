package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"sjsage522/listingwatch/helpers"
	apperrors "sjsage522/listingwatch/pkg/errors"
	"sjsage522/listingwatch/services/cache"
)

const defaultBlockTime = 300 * time.Second

// BaseCrawler provides the rate-limit gate shared by all site crawlers
type BaseCrawler struct {
	Provider  string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// fetchWithCache fetches url unless the site is still blocked after an earlier 429
func (c *BaseCrawler) fetchWithCache(ctx context.Context, url string, fetch FetchFunc) (io.Reader, error) {
	if c.CacheSvc != nil && c.CacheKey != "" {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			return nil, apperrors.NewRateLimit(c.Provider, c.BlockTime)
		}
	}

	body, err := fetch(ctx, url)
	if err == nil {
		return body, nil
	}

	var rateErr *helpers.RateLimitError
	if errors.As(err, &rateErr) {
		block := c.blockFor(rateErr.RetryAfter)
		if c.CacheSvc != nil && c.CacheKey != "" {
			c.CacheSvc.Set(c.CacheKey, []byte(strconv.Itoa(int(block/time.Second))), block)
		}
		return nil, apperrors.NewRateLimit(c.Provider, block)
	}

	var blocked *helpers.BlockedError
	if errors.As(err, &blocked) {
		return nil, apperrors.NewBlocked(c.Provider, blocked.Marker)
	}

	return nil, apperrors.NewNetwork(c.Provider, fmt.Sprintf("fetch %s", url), err)
}

// blockFor prefers a numeric Retry-After over the configured block time
func (c *BaseCrawler) blockFor(retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if c.BlockTime > 0 {
		return c.BlockTime
	}
	return defaultBlockTime
}

// GetName returns the crawler's name for logging
func (c *BaseCrawler) GetName() string {
	return c.Provider + "Crawler"
}

// GetProvider returns the site ID
func (c *BaseCrawler) GetProvider() string {
	return c.Provider
}
