package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"TrendSentinel/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists screening runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP readers query while a run is being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screening_runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL UNIQUE,
			timestamp        INTEGER NOT NULL,
			benchmark        TEXT,
			benchmark_return REAL,
			universe_size    INTEGER,
			evaluated        INTEGER,
			passed           INTEGER,
			skipped          INTEGER,
			duration_ms      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON screening_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS screening_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			counter       INTEGER,
			ticker        TEXT,
			rs_rating     REAL,
			current_close REAL,
			sma_50        REAL,
			sma_150       REAL,
			sma_200       REAL,
			sma_200_prior REAL,
			low_52w       REAL,
			high_52w      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON screening_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_ticker ON screening_results(ticker)`,

		`CREATE TABLE IF NOT EXISTS screening_skips (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL,
			counter INTEGER,
			ticker  TEXT,
			reason  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skips_run ON screening_skips(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run summary, its passing rows and its skips in one transaction.
func (r *SQLiteRecorder) RecordRun(report *model.ScreenReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO screening_runs
		(run_id, timestamp, benchmark, benchmark_return, universe_size, evaluated, passed, skipped, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		report.RunID, report.Date.Unix(), report.Benchmark, report.BenchmarkReturn,
		report.UniverseSize, report.Evaluated, len(report.Results), len(report.Skips),
		report.Duration.Milliseconds(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, res := range report.Results {
		ind := res.Indicators
		if _, err := tx.Exec(`INSERT INTO screening_results
			(run_id, counter, ticker, rs_rating, current_close, sma_50, sma_150, sma_200, sma_200_prior, low_52w, high_52w)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			report.RunID, res.Counter, res.Ticker, ind.RSRating, ind.CurrentClose,
			ind.SMA50, ind.SMA150, ind.SMA200, ind.SMA200Prior, ind.Low52w, ind.High52w,
		); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Ticker, err)
		}
	}

	for _, sk := range report.Skips {
		if _, err := tx.Exec(`INSERT INTO screening_skips (run_id, counter, ticker, reason) VALUES (?,?,?,?)`,
			report.RunID, sk.Counter, sk.Ticker, sk.Reason,
		); err != nil {
			return fmt.Errorf("insert skip %s: %w", sk.Ticker, err)
		}
	}

	return tx.Commit()
}

// LatestRun loads the most recent run with its rows and skips.
func (r *SQLiteRecorder) LatestRun() (*model.ScreenReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &model.ScreenReport{Results: []model.ScreeningResult{}, Skips: []model.SkipRecord{}}
	var ts, durationMs int64
	err := r.db.QueryRow(`SELECT run_id, timestamp, benchmark, benchmark_return, universe_size, evaluated, duration_ms
		FROM screening_runs ORDER BY timestamp DESC, id DESC LIMIT 1`).
		Scan(&report.RunID, &ts, &report.Benchmark, &report.BenchmarkReturn,
			&report.UniverseSize, &report.Evaluated, &durationMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	report.Date = time.Unix(ts, 0)
	report.Duration = time.Duration(durationMs) * time.Millisecond

	rows, err := r.db.Query(`SELECT counter, ticker, rs_rating, current_close, sma_50, sma_150, sma_200, sma_200_prior, low_52w, high_52w
		FROM screening_results WHERE run_id = ? ORDER BY counter`, report.RunID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		res := model.ScreeningResult{Date: report.Date}
		ind := &res.Indicators
		if err := rows.Scan(&res.Counter, &res.Ticker, &ind.RSRating, &ind.CurrentClose,
			&ind.SMA50, &ind.SMA150, &ind.SMA200, &ind.SMA200Prior, &ind.Low52w, &ind.High52w); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		report.Results = append(report.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	skips, err := r.db.Query(`SELECT counter, ticker, reason FROM screening_skips WHERE run_id = ? ORDER BY counter`, report.RunID)
	if err != nil {
		return nil, fmt.Errorf("query skips: %w", err)
	}
	defer skips.Close()
	for skips.Next() {
		var sk model.SkipRecord
		if err := skips.Scan(&sk.Counter, &sk.Ticker, &sk.Reason); err != nil {
			return nil, fmt.Errorf("scan skip: %w", err)
		}
		report.Skips = append(report.Skips, sk)
	}
	return report, skips.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
