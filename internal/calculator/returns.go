package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroBenchmark is returned when the benchmark return is zero and a rating is undefined.
var ErrZeroBenchmark = errors.New("benchmark return is zero")

// SumPctChange sums the day-over-day fractional changes of closes and expresses
// the total in percent. The changes are added, not compounded.
func SumPctChange(closes []float64) (float64, error) {
	sum := 0.0
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev == 0 {
			return 0, fmt.Errorf("zero close at index %d", i-1)
		}
		sum += (closes[i] - prev) / prev
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, errors.New("percent change sum is not finite")
	}
	return sum * 100, nil
}

// BenchmarkReturn computes the benchmark's summed percent change over the window.
func BenchmarkReturn(closes []float64) (float64, error) {
	if len(closes) < 2 {
		return 0, fmt.Errorf("benchmark needs at least 2 closes, have %d: %w", len(closes), ErrInsufficientData)
	}
	return SumPctChange(closes)
}

// RSRating scores a stock against the benchmark: stock return / benchmark return * 10,
// rounded to 2 decimals.
func RSRating(closes []float64, benchmarkReturn float64) (float64, error) {
	if benchmarkReturn == 0 {
		return 0, ErrZeroBenchmark
	}
	stockReturn, err := SumPctChange(closes)
	if err != nil {
		return 0, err
	}
	return Round2(stockReturn / benchmarkReturn * 10), nil
}
