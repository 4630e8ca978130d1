package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"TrendSentinel/internal/model"
	"TrendSentinel/internal/notifier"
	"TrendSentinel/internal/output"
	"TrendSentinel/internal/publisher"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/screener"
	"TrendSentinel/internal/snapshot"
	"TrendSentinel/internal/universe"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is requested while another is still going.
var ErrRunInProgress = errors.New("screen already running")

// Notifier delivers formatted messages to the operator.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the daily screen and handles chat commands.
type Scheduler struct {
	Cron       *cron.Cron
	Screener   *screener.Screener
	Universe   universe.Source
	Benchmark  string
	OutputPath string
	Notifier   Notifier
	Recorder   recorder.Recorder
	Publisher  publisher.Publisher
	Snapshots  *snapshot.Store
	Logger     *zap.Logger
	Ctx        context.Context

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new Scheduler. Notifier may be nil.
func NewScheduler(ctx context.Context, sc *screener.Screener, src universe.Source, benchmark string,
	n Notifier, rec recorder.Recorder, pub publisher.Publisher, snaps *snapshot.Store, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Screener:  sc,
		Universe:  src,
		Benchmark: benchmark,
		Notifier:  n,
		Recorder:  rec,
		Publisher: pub,
		Snapshots: snaps,
		Logger:    logger,
		Ctx:       ctx,
	}
}

// Register adds the daily screening task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

func (s *Scheduler) dailyTask() {
	s.Logger.Info("running daily screen")
	if _, err := s.RunNow(s.Ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
		s.trySend(notifier.FormatRunFailure(err))
	}
}

// RunNow resolves the universe, screens it and fans the report out to every sink.
// Sink failures are logged; only universe and benchmark failures fail the run.
func (s *Scheduler) RunNow(ctx context.Context) (*model.ScreenReport, error) {
	if !s.begin() {
		return nil, ErrRunInProgress
	}
	defer s.end()

	tickers, err := s.Universe.Tickers(ctx)
	if err != nil {
		s.Logger.Error("resolve universe", zap.String("source", s.Universe.Name()), zap.Error(err))
		return nil, fmt.Errorf("resolve universe %s: %w", s.Universe.Name(), err)
	}
	s.Logger.Info("universe resolved", zap.String("source", s.Universe.Name()), zap.Int("tickers", len(tickers)))

	report, err := s.Screener.Run(ctx, s.Benchmark, tickers)
	if err != nil {
		return nil, err
	}

	if s.OutputPath != "" {
		if err := output.SaveCSV(s.OutputPath, report.Results); err != nil {
			s.Logger.Error("save csv", zap.String("path", s.OutputPath), zap.Error(err))
		} else {
			s.Logger.Info("results written", zap.String("path", s.OutputPath), zap.Int("rows", len(report.Results)))
		}
	}
	if err := s.Snapshots.Put(report); err != nil {
		s.Logger.Error("save snapshot", zap.Error(err))
	}
	if err := s.Recorder.RecordRun(report); err != nil {
		s.Logger.Error("record run", zap.String("run_id", report.RunID), zap.Error(err))
	}
	if err := s.Publisher.PublishReport(ctx, report); err != nil {
		s.Logger.Error("publish report", zap.String("run_id", report.RunID), zap.Error(err))
	}
	s.trySend(notifier.FormatScreenReport(report))
	return report, nil
}

func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Running reports whether a screen is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Latest returns the most recent report, falling back to the recorder after a restart.
func (s *Scheduler) Latest() (*model.ScreenReport, error) {
	if r := s.Snapshots.Latest(); r != nil {
		return r, nil
	}
	r, err := s.Recorder.LatestRun()
	if err != nil {
		return nil, fmt.Errorf("load latest run: %w", err)
	}
	return r, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/screen":
		if s.Running() {
			return "⏳ A screen is already running."
		}
		go s.dailyTask()
		return "⏳ Screen started, the report follows when it finishes."
	case "/last":
		latest, err := s.Latest()
		if err != nil {
			s.Logger.Error("latest report", zap.Error(err))
			return "❌ Could not load the last report."
		}
		if latest == nil {
			return "No screen has run yet."
		}
		if len(fields) > 1 {
			ticker := strings.ToUpper(fields[1])
			res, ok := latest.Find(ticker)
			if !ok {
				return fmt.Sprintf("%s did not pass the last screen (%s).", ticker, latest.Date.Format("2006-01-02"))
			}
			return notifier.FormatTicker(res)
		}
		return notifier.FormatScreenReport(latest)
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /screen - run the trend template now\n• /last - last report\n• /last TICKER - one passing ticker"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
