// Package fetch - cached.go wraps URL fetching with in-memory caching.
package fetch

import (
	"context"
	"time"
)

// CachedFetcher wraps URL fetching with an expiring in-memory cache.
// Detail pages get re-requested when the same item surfaces under several
// keywords, so a short-lived cache saves a lot of duplicate traffic.
type CachedFetcher struct {
	cache     *Cache
	options   *Options
	skipCache bool // For testing or forcing fresh fetches
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL:  DefaultCacheTTL,
		SkipCache: false,
		Options:   DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	return &CachedFetcher{
		cache:     NewCache(config.CacheTTL),
		options:   config.Options,
		skipCache: config.SkipCache,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, using the cache if a fresh entry exists.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if !f.skipCache {
		if cached := f.cache.Get(urlStr); cached != nil {
			return &CachedResult{Result: cached, FromCache: true}, nil
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	f.cache.Set(urlStr, result)
	return &CachedResult{Result: result, FromCache: false}, nil
}

// Invalidate removes a URL from the cache, forcing a re-fetch on next request.
func (f *CachedFetcher) Invalidate(urlStr string) {
	f.cache.Delete(urlStr)
}

// Close releases the cache's background resources.
func (f *CachedFetcher) Close() {
	f.cache.Close()
}
