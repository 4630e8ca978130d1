package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"TrendSentinel/internal/model"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// AlpacaFetcher implements Fetcher using Alpaca market data. Bars are requested
// with full split and dividend adjustment, so Close is already adjusted.
type AlpacaFetcher struct {
	Client *marketdata.Client
	Feed   marketdata.Feed
}

// NewAlpacaFetcher creates an Alpaca fetcher.
func NewAlpacaFetcher(apiKey, apiSecret, feed string) *AlpacaFetcher {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	})
	return &AlpacaFetcher{Client: client, Feed: marketdata.Feed(feed)}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

type alpacaResult struct {
	bars []marketdata.Bar
	err  error
}

// FetchDailySeries fetches adjusted daily bars between start and end.
func (f *AlpacaFetcher) FetchDailySeries(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	// the SDK call takes no context, so the wait is bounded here
	done := make(chan alpacaResult, 1)
	go func() {
		bars, err := f.Client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Adjustment: marketdata.All,
			Start:      start,
			End:        end,
			Feed:       f.Feed,
		})
		done <- alpacaResult{bars: bars, err: err}
	}()

	var res alpacaResult
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("alpaca %s: %w", symbol, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("alpaca fetch %s: %w", symbol, res.err)
	}
	if len(res.bars) == 0 {
		return nil, fmt.Errorf("alpaca %s: no bars: %w", symbol, ErrNotFound)
	}

	bars := make([]model.OHLCV, len(res.bars))
	for i, b := range res.bars {
		bars[i] = model.OHLCV{
			Time:     b.Timestamp,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			AdjClose: b.Close,
			Volume:   float64(b.Volume),
		}
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}
