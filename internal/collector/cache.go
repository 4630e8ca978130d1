package collector

import (
	"context"
	"fmt"
	"time"

	"TrendSentinel/internal/model"

	"go.uber.org/zap"
)

// SeriesCache is a key/value store for fetched series.
type SeriesCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CachedFetcher serves series from a cache before falling back to the wrapped fetcher.
// Keys are per calendar day, so repeated runs on the same day hit the provider once.
type CachedFetcher struct {
	Next   Fetcher
	Cache  SeriesCache
	TTL    time.Duration
	Logger *zap.Logger
}

// NewCachedFetcher wraps next with cache.
func NewCachedFetcher(next Fetcher, cache SeriesCache, ttl time.Duration, logger *zap.Logger) *CachedFetcher {
	return &CachedFetcher{Next: next, Cache: cache, TTL: ttl, Logger: logger}
}

func (f *CachedFetcher) Name() string { return f.Next.Name() + "+cache" }

func (f *CachedFetcher) key(symbol string, start, end time.Time) string {
	return fmt.Sprintf("series:%s:%s:%s:%s", f.Next.Name(), symbol, start.Format("20060102"), end.Format("20060102"))
}

func (f *CachedFetcher) FetchDailySeries(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	key := f.key(symbol, start, end)

	var cached model.PriceSeries
	if err := f.Cache.Get(ctx, key, &cached); err == nil && cached.Len() > 0 {
		return &cached, nil
	}

	series, err := f.Next.FetchDailySeries(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := f.Cache.Set(ctx, key, series, f.TTL); err != nil {
		f.Logger.Warn("cache series failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return series, nil
}
