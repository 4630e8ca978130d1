package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"TrendSentinel/internal/model"
)

// Store keeps the most recent screen report in memory and mirrors it to a JSON file
// so the HTTP and chat surfaces can answer before the first run of a new process.
type Store struct {
	mu       sync.RWMutex
	report   *model.ScreenReport
	filePath string
}

// NewStore loads any existing snapshot from filePath. An empty path keeps the store memory-only.
func NewStore(filePath string) (*Store, error) {
	s := &Store{filePath: filePath}
	if filePath == "" {
		return s, nil
	}
	report, err := Load(filePath)
	if err != nil {
		return nil, err
	}
	s.report = report
	return s, nil
}

// Latest returns the last stored report, or nil.
func (s *Store) Latest() *model.ScreenReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Put replaces the stored report and persists it.
func (s *Store) Put(report *model.ScreenReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = report
	if s.filePath == "" {
		return nil
	}
	return Save(s.filePath, report)
}

// Load reads a report from a JSON file. Returns nil if the file doesn't exist.
func Load(filePath string) (*model.ScreenReport, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var report model.ScreenReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &report, nil
}

// Save writes the report to a JSON file.
func Save(filePath string, report *model.ScreenReport) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
