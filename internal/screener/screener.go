package screener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/strategy"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrBenchmark marks a run that could not start because the benchmark was unavailable.
var ErrBenchmark = errors.New("benchmark unavailable")

const (
	DefaultWorkers      = 4
	DefaultFetchTimeout = 30 * time.Second
)

// Screener runs the trend template over a ticker universe.
type Screener struct {
	Collector    *collector.Collector
	Logger       *zap.Logger
	Workers      int
	FetchTimeout time.Duration
	Now          func() time.Time
}

// New creates a Screener. workers <= 0 and fetchTimeout <= 0 fall back to defaults.
func New(col *collector.Collector, logger *zap.Logger, workers int, fetchTimeout time.Duration) *Screener {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Screener{
		Collector:    col,
		Logger:       logger,
		Workers:      workers,
		FetchTimeout: fetchTimeout,
		Now:          time.Now,
	}
}

// outcome is the per-ticker slot; exactly one of result/skip is set when the
// ticker produced a row or failed, neither when it was evaluated and rejected.
type outcome struct {
	result *model.ScreeningResult
	skip   *model.SkipRecord
}

// Run computes the benchmark return once, then screens every ticker. A benchmark
// failure aborts the run; a ticker failure is recorded as a skip and the run
// continues. Results keep the input order of tickers. A cancelled ctx fails the
// run so partial reports never reach the sinks.
func (s *Screener) Run(ctx context.Context, benchmark string, tickers []string) (*model.ScreenReport, error) {
	started := time.Now()
	report := &model.ScreenReport{
		RunID:        uuid.NewString(),
		Date:         s.Now(),
		Benchmark:    benchmark,
		UniverseSize: len(tickers),
		Results:      []model.ScreeningResult{},
		Skips:        []model.SkipRecord{},
	}
	log := s.Logger.With(zap.String("run_id", report.RunID))
	log.Info("beginning screening process",
		zap.String("benchmark", benchmark), zap.Int("tickers", len(tickers)), zap.Int("workers", s.Workers))

	bctx, cancel := context.WithTimeout(ctx, s.FetchTimeout)
	benchReturn, err := s.Collector.BenchmarkReturn(bctx, benchmark)
	cancel()
	if err != nil {
		log.Error("benchmark failed", zap.String("benchmark", benchmark), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrBenchmark, err)
	}
	report.BenchmarkReturn = benchReturn
	log.Info("benchmark return", zap.String("benchmark", benchmark), zap.Float64("return_pct", benchReturn))

	outcomes := make([]outcome, len(tickers))
	var g errgroup.Group
	g.SetLimit(s.Workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			outcomes[i] = s.screenOne(ctx, log, report.Date, i, len(tickers), ticker, benchReturn)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		log.Warn("screening interrupted", zap.Error(err))
		return nil, fmt.Errorf("screening interrupted: %w", err)
	}

	for _, o := range outcomes {
		switch {
		case o.skip != nil:
			report.Skips = append(report.Skips, *o.skip)
		case o.result != nil:
			report.Results = append(report.Results, *o.result)
			report.Evaluated++
		default:
			report.Evaluated++
		}
	}
	report.Duration = time.Since(started)

	log.Info("screening completed",
		zap.Int("passed", len(report.Results)),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("skipped", len(report.Skips)),
		zap.Duration("took", report.Duration))
	return report, nil
}

func (s *Screener) screenOne(ctx context.Context, log *zap.Logger, date time.Time, counter, total int, ticker string, benchReturn float64) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = skip(log, counter, ticker, fmt.Errorf("panic: %v", r))
		}
	}()

	log.Info("pulling ticker", zap.String("symbol", ticker), zap.Int("counter", counter), zap.Int("total", total))

	tctx, cancel := context.WithTimeout(ctx, s.FetchTimeout)
	defer cancel()

	ind, err := s.Collector.Collect(tctx, ticker, benchReturn)
	if err != nil {
		return skip(log, counter, ticker, err)
	}

	check := strategy.Evaluate(ind)
	if !check.Passed {
		log.Debug("ticker rejected", zap.String("symbol", ticker), zap.Strings("failed", check.Failed()))
		return outcome{}
	}

	log.Info("ticker matches the requirements", zap.String("symbol", ticker), zap.Float64("rs_rating", ind.RSRating))
	return outcome{result: &model.ScreeningResult{
		Date:       date,
		Counter:    counter,
		Ticker:     ticker,
		Indicators: *ind,
	}}
}

func skip(log *zap.Logger, counter int, ticker string, err error) outcome {
	log.Warn("ticker skipped", zap.String("symbol", ticker), zap.Int("counter", counter), zap.Error(err))
	return outcome{skip: &model.SkipRecord{Counter: counter, Ticker: ticker, Reason: err.Error()}}
}
