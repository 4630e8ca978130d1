package collector

import (
	"context"
	"errors"
	"time"

	"TrendSentinel/internal/model"
)

// ErrNotFound is returned when a provider has no history for a symbol.
var ErrNotFound = errors.New("symbol not found")

// Fetcher is the price-history provider contract: daily bars of one symbol
// between start and end, ascending by time.
type Fetcher interface {
	FetchDailySeries(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error)
	Name() string
}
