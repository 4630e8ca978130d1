package recorder

import "TrendSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *model.ScreenReport) error { return nil }

func (n *NoopRecorder) LatestRun() (*model.ScreenReport, error) { return nil, nil }

func (n *NoopRecorder) Close() error { return nil }
