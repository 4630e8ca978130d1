package calculator

import (
	"errors"
	"math"
)

// TradingDays52w approximates 52 weeks of sessions.
const TradingDays52w = 260

// Calculate52WeekRange returns the lowest and highest close over the most recent
// 260 observations, or over all of them when the series is shorter.
func Calculate52WeekRange(closes []float64) (low, high float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.New("no closes provided")
	}
	start := len(closes) - TradingDays52w
	if start < 0 {
		start = 0
	}
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, c := range closes[start:] {
		if c < low {
			low = c
		}
		if c > high {
			high = c
		}
	}
	return low, high, nil
}

// CurrentClose returns the last close.
func CurrentClose(closes []float64) (float64, error) {
	if len(closes) == 0 {
		return 0, errors.New("no closes provided")
	}
	return closes[len(closes)-1], nil
}
