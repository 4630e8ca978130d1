package model

import "time"

// ScreeningResult is one row of the output table.
type ScreeningResult struct {
	Date       time.Time    `json:"date"`
	Counter    int          `json:"counter"`
	Ticker     string       `json:"ticker"`
	Indicators IndicatorSet `json:"indicators"`
}

// SkipRecord explains why a ticker produced no decision.
type SkipRecord struct {
	Counter int    `json:"counter"`
	Ticker  string `json:"ticker"`
	Reason  string `json:"reason"`
}

// ScreenReport is the outcome of one screening run.
type ScreenReport struct {
	RunID           string            `json:"run_id"`
	Date            time.Time         `json:"date"`
	Benchmark       string            `json:"benchmark"`
	BenchmarkReturn float64           `json:"benchmark_return"`
	UniverseSize    int               `json:"universe_size"`
	Evaluated       int               `json:"evaluated"`
	Results         []ScreeningResult `json:"results"`
	Skips           []SkipRecord      `json:"skips"`
	Duration        time.Duration     `json:"duration"`
}

// Find returns the passing row for ticker, if any.
func (r *ScreenReport) Find(ticker string) (ScreeningResult, bool) {
	for _, res := range r.Results {
		if res.Ticker == ticker {
			return res, true
		}
	}
	return ScreeningResult{}, false
}
