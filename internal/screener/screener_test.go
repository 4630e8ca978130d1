package screener

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"TrendSentinel/internal/calculator"
	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func linear(n int, from, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = from + float64(i)*step
	}
	return closes
}

// hangingFetcher blocks on the symbols in hang until the context ends.
type hangingFetcher struct {
	*collector.MockFetcher
	hang  map[string]bool
	calls atomic.Int32
}

func (h *hangingFetcher) FetchDailySeries(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	h.calls.Add(1)
	if h.hang[symbol] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return h.MockFetcher.FetchDailySeries(ctx, symbol, start, end)
}

func newFixture() *hangingFetcher {
	return &hangingFetcher{
		MockFetcher: &collector.MockFetcher{
			Series: map[string]*model.PriceSeries{
				"^GSPC": collector.SeriesFromCloses("^GSPC", []float64{100, 101, 102, 101, 103}),
				"UP1":   collector.SeriesFromCloses("UP1", linear(260, 1, 1)),
				"UP2":   collector.SeriesFromCloses("UP2", linear(260, 50, 0.5)),
				"DOWN":  collector.SeriesFromCloses("DOWN", linear(260, 300, -1)),
				"SHORT": collector.SeriesFromCloses("SHORT", linear(120, 1, 1)),
			},
			Errors: map[string]error{"BOOM": errors.New("connection reset")},
		},
		hang: map[string]bool{},
	}
}

func newScreener(f collector.Fetcher, workers int) *Screener {
	s := New(collector.NewCollector(f, 365), zap.NewNop(), workers, time.Second)
	s.Now = func() time.Time { return time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestRun_PassesAndSkips(t *testing.T) {
	for _, workers := range []int{1, 4} {
		f := newFixture()
		s := newScreener(f, workers)

		tickers := []string{"UP1", "BOOM", "DOWN", "SHORT", "MISSING", "UP2"}
		report, err := s.Run(context.Background(), "^GSPC", tickers)
		require.NoError(t, err)

		require.Len(t, report.Results, 2)
		assert.Equal(t, "UP1", report.Results[0].Ticker)
		assert.Equal(t, 0, report.Results[0].Counter)
		assert.Equal(t, "UP2", report.Results[1].Ticker)
		assert.Equal(t, 5, report.Results[1].Counter)
		assert.Equal(t, s.Now(), report.Results[0].Date)

		require.Len(t, report.Skips, 3)
		assert.Equal(t, []string{"BOOM", "SHORT", "MISSING"},
			[]string{report.Skips[0].Ticker, report.Skips[1].Ticker, report.Skips[2].Ticker})
		assert.Contains(t, report.Skips[0].Reason, "connection reset")

		assert.Equal(t, 3, report.Evaluated)
		assert.Equal(t, 6, report.UniverseSize)
		assert.InDelta(t, 2.99, report.BenchmarkReturn, 0.005)
		assert.NotEmpty(t, report.RunID)
		assert.Equal(t, int32(len(tickers)+1), f.calls.Load())
	}
}

func TestRun_ResultCarriesIndicators(t *testing.T) {
	s := newScreener(newFixture(), 2)
	report, err := s.Run(context.Background(), "^GSPC", []string{"UP1"})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	ind := report.Results[0].Indicators
	assert.Equal(t, 260.0, ind.CurrentClose)
	assert.Equal(t, 235.5, ind.SMA50)
	assert.Equal(t, 1.0, ind.Low52w)
	assert.Equal(t, 260.0, ind.High52w)
	assert.GreaterOrEqual(t, ind.RSRating, 70.0)
}

func TestRun_EmptyUniverse(t *testing.T) {
	f := newFixture()
	report, err := newScreener(f, 4).Run(context.Background(), "^GSPC", nil)
	require.NoError(t, err)
	assert.NotNil(t, report.Results)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Skips)
	assert.Equal(t, int32(1), f.calls.Load(), "benchmark still fetched")
}

func TestRun_BenchmarkFailureIsFatal(t *testing.T) {
	f := newFixture()
	report, err := newScreener(f, 4).Run(context.Background(), "^NOPE", []string{"UP1"})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrBenchmark)
	assert.ErrorIs(t, err, collector.ErrNotFound)
	assert.Equal(t, int32(1), f.calls.Load(), "no ticker fetched after benchmark failure")
}

func TestRun_FlatBenchmarkSkipsEveryTicker(t *testing.T) {
	f := newFixture()
	f.Series["FLAT"] = collector.SeriesFromCloses("FLAT", []float64{100, 100, 100})
	report, err := newScreener(f, 2).Run(context.Background(), "FLAT", []string{"UP1", "UP2"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.BenchmarkReturn)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.Evaluated)
	require.Len(t, report.Skips, 2)
	assert.Equal(t, "UP1", report.Skips[0].Ticker)
	assert.Equal(t, "UP2", report.Skips[1].Ticker)
	for _, sk := range report.Skips {
		assert.Contains(t, sk.Reason, calculator.ErrZeroBenchmark.Error())
	}
}

func TestRun_ShortBenchmarkIsFatal(t *testing.T) {
	f := newFixture()
	f.Series["ONE"] = collector.SeriesFromCloses("ONE", []float64{100})
	_, err := newScreener(f, 1).Run(context.Background(), "ONE", []string{"UP1"})
	assert.ErrorIs(t, err, ErrBenchmark)
}

func TestRun_CancelledRunFails(t *testing.T) {
	f := newFixture()
	f.hang["SLOW"] = true
	s := newScreener(f, 1)
	s.FetchTimeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for f.calls.Load() < 2 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()
	report, err := s.Run(ctx, "^GSPC", []string{"SLOW", "UP1", "UP2"})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_HangingFetchIsBounded(t *testing.T) {
	f := newFixture()
	f.hang["SLOW"] = true
	s := newScreener(f, 1)
	s.FetchTimeout = 50 * time.Millisecond

	started := time.Now()
	report, err := s.Run(context.Background(), "^GSPC", []string{"SLOW", "UP1"})
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)

	require.Len(t, report.Skips, 1)
	assert.Equal(t, "SLOW", report.Skips[0].Ticker)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "UP1", report.Results[0].Ticker)
}

type panickingFetcher struct{ *hangingFetcher }

func (p panickingFetcher) FetchDailySeries(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	if symbol == "PANIC" {
		panic("bad payload")
	}
	return p.hangingFetcher.FetchDailySeries(ctx, symbol, start, end)
}

func TestRun_PanicIsIsolated(t *testing.T) {
	report, err := newScreener(panickingFetcher{newFixture()}, 2).Run(context.Background(), "^GSPC", []string{"PANIC", "UP1"})
	require.NoError(t, err)
	require.Len(t, report.Skips, 1)
	assert.Contains(t, report.Skips[0].Reason, "panic")
	require.Len(t, report.Results, 1)
}

func TestRun_LogsProgressAtInfo(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(collector.NewCollector(newFixture(), 365), zap.New(core), 1, time.Second)

	_, err := s.Run(context.Background(), "^GSPC", []string{"UP1", "DOWN"})
	require.NoError(t, err)

	pulled := logs.FilterMessage("pulling ticker").All()
	require.Len(t, pulled, 2)
	assert.Equal(t, "UP1", pulled[0].ContextMap()["symbol"])
	assert.Equal(t, int64(2), pulled[1].ContextMap()["total"])
}
