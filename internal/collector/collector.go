package collector

import (
	"context"
	"fmt"
	"time"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/model"
)

// PriorSMALookback is how many sessions back the SMA200 slope is compared.
const PriorSMALookback = 20

// MockFetcher returns fixed series for development and testing.
type MockFetcher struct {
	Series map[string]*model.PriceSeries
	Errors map[string]error
	Delay  time.Duration
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailySeries(ctx context.Context, symbol string, _, _ time.Time) (*model.PriceSeries, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	s, ok := m.Series[symbol]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNotFound)
	}
	return s, nil
}

// SeriesFromCloses builds a daily series ending today from adjusted closes.
func SeriesFromCloses(symbol string, closes []float64) *model.PriceSeries {
	n := len(closes)
	bars := make([]model.OHLCV, n)
	now := time.Now().Truncate(24 * time.Hour)
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:     now.AddDate(0, 0, -(n - 1 - i)),
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			AdjClose: c,
			Volume:   1000000,
		}
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}
}

// Collector fetches price history over the lookback window and computes indicators.
type Collector struct {
	Fetcher      Fetcher
	LookbackDays int
	Now          func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackDays int) *Collector {
	return &Collector{Fetcher: fetcher, LookbackDays: lookbackDays, Now: time.Now}
}

// Window returns the [start, end] range requested from the provider.
func (c *Collector) Window() (start, end time.Time) {
	end = c.Now()
	return end.AddDate(0, 0, -c.LookbackDays), end
}

// FetchSeries pulls the daily series of symbol over the lookback window.
func (c *Collector) FetchSeries(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	start, end := c.Window()
	series, err := c.Fetcher.FetchDailySeries(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("fetch %s: empty series: %w", symbol, ErrNotFound)
	}
	return series, nil
}

// BenchmarkReturn fetches the benchmark and returns its summed percent change.
// A zero return is not an error here; RSRating rejects it per ticker.
func (c *Collector) BenchmarkReturn(ctx context.Context, symbol string) (float64, error) {
	series, err := c.FetchSeries(ctx, symbol)
	if err != nil {
		return 0, err
	}
	ret, err := calculator.BenchmarkReturn(series.AdjCloses())
	if err != nil {
		return 0, fmt.Errorf("benchmark %s: %w", symbol, err)
	}
	return ret, nil
}

// Collect fetches symbol and computes its indicator set.
func (c *Collector) Collect(ctx context.Context, symbol string, benchmarkReturn float64) (*model.IndicatorSet, error) {
	series, err := c.FetchSeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return ComputeIndicators(series, benchmarkReturn)
}

// ComputeIndicators derives the full indicator set from series. Any indicator
// that cannot be computed fails the whole set.
func ComputeIndicators(series *model.PriceSeries, benchmarkReturn float64) (*model.IndicatorSet, error) {
	closes := series.AdjCloses()
	ind := &model.IndicatorSet{}
	var err error

	if ind.RSRating, err = calculator.RSRating(closes, benchmarkReturn); err != nil {
		return nil, fmt.Errorf("rs rating: %w", err)
	}
	if ind.CurrentClose, err = calculator.CurrentClose(closes); err != nil {
		return nil, fmt.Errorf("current close: %w", err)
	}
	if ind.SMA50, err = calculator.LatestSMA(closes, 50); err != nil {
		return nil, err
	}
	if ind.SMA150, err = calculator.LatestSMA(closes, 150); err != nil {
		return nil, err
	}
	if ind.SMA200, err = calculator.LatestSMA(closes, 200); err != nil {
		return nil, err
	}
	if ind.SMA200Prior, err = calculator.PriorSMA(closes, 200, PriorSMALookback); err != nil {
		return nil, err
	}
	if ind.Low52w, ind.High52w, err = calculator.Calculate52WeekRange(closes); err != nil {
		return nil, fmt.Errorf("52-week range: %w", err)
	}
	return ind, nil
}
