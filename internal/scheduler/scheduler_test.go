package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/model"
	"TrendSentinel/internal/publisher"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/screener"
	"TrendSentinel/internal/snapshot"
	"TrendSentinel/internal/universe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	return nil
}

type capturePublisher struct {
	reports []*model.ScreenReport
}

func (c *capturePublisher) PublishReport(_ context.Context, r *model.ScreenReport) error {
	c.reports = append(c.reports, r)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

var _ publisher.Publisher = (*capturePublisher)(nil)

type failingSource struct{}

func (failingSource) Name() string { return "broken" }

func (failingSource) Tickers(context.Context) ([]string, error) { return nil, errors.New("wiki down") }

func rising(n int, from float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = from + float64(i)
	}
	return closes
}

func newTestScheduler(t *testing.T, src universe.Source) (*Scheduler, *captureNotifier, *capturePublisher) {
	t.Helper()
	mock := &collector.MockFetcher{Series: map[string]*model.PriceSeries{
		"SPY":  collector.SeriesFromCloses("SPY", []float64{100, 101, 102, 101, 103}),
		"LEAD": collector.SeriesFromCloses("LEAD", rising(260, 1)),
		"LAG":  collector.SeriesFromCloses("LAG", rising(260, 1)[:100]),
	}}
	sc := screener.New(collector.NewCollector(mock, 365), zap.NewNop(), 2, time.Second)
	snaps, err := snapshot.NewStore("")
	require.NoError(t, err)

	n := &captureNotifier{}
	pub := &capturePublisher{}
	s := NewScheduler(context.Background(), sc, src, "SPY", n, recorder.NewNoopRecorder(), pub, snaps, zap.NewNop())
	s.OutputPath = filepath.Join(t.TempDir(), "out", "screened_stocks.csv")
	return s, n, pub
}

func TestRunNow_FansOutToSinks(t *testing.T) {
	s, n, pub := newTestScheduler(t, universe.Static{"LEAD", "LAG", "GONE"})

	report, err := s.RunNow(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "LEAD", report.Results[0].Ticker)
	assert.Len(t, report.Skips, 2)

	assert.FileExists(t, s.OutputPath)
	require.Len(t, pub.reports, 1)
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "LEAD")

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, report.RunID, latest.RunID)
}

func TestRunNow_UniverseFailure(t *testing.T) {
	s, _, pub := newTestScheduler(t, failingSource{})
	_, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wiki down")
	assert.Empty(t, pub.reports)
}

func TestRunNow_RejectsOverlap(t *testing.T) {
	s, _, _ := newTestScheduler(t, universe.Static{"LEAD"})
	require.True(t, s.begin())
	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	s.end()
	assert.False(t, s.Running())
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t, universe.Static{"LEAD", "LAG"})

	assert.Equal(t, "No screen has run yet.", s.HandleCommand("/last"))
	assert.True(t, strings.HasPrefix(s.HandleCommand("/help"), "Commands:"))

	_, err := s.RunNow(context.Background())
	require.NoError(t, err)

	assert.Contains(t, s.HandleCommand("/last"), "Passed: <b>1</b>")
	assert.Contains(t, s.HandleCommand("/last lead"), "<b>LEAD</b>")
	assert.Contains(t, s.HandleCommand("/last LAG"), "LAG did not pass")

	require.True(t, s.begin())
	assert.Contains(t, s.HandleCommand("/screen"), "already running")
	s.end()
}

func TestRegister_InvalidCron(t *testing.T) {
	s, _, _ := newTestScheduler(t, universe.Static{})
	assert.Error(t, s.Register("not a cron"))
	assert.NoError(t, s.Register("0 0 22 * * 1-5"))
}

func TestRunNow_CounterIndexesResolvedUniverse(t *testing.T) {
	s, _, _ := newTestScheduler(t, universe.Static{"LEAD", " lead ", "LAG"})

	report, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.UniverseSize, "duplicates are dropped before screening")
	require.Len(t, report.Results, 1)
	assert.Equal(t, 0, report.Results[0].Counter)
	require.Len(t, report.Skips, 1)
	assert.Equal(t, "LAG", report.Skips[0].Ticker)
	assert.Equal(t, 1, report.Skips[0].Counter)
}
