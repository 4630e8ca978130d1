package recorder

import "TrendSentinel/internal/model"

// Recorder persists screening history for later analysis.
type Recorder interface {
	RecordRun(report *model.ScreenReport) error
	// LatestRun returns the most recent run, or nil when none is stored.
	LatestRun() (*model.ScreenReport, error)
	Close() error
}
