package calculator

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when a window needs more observations than the series has.
var ErrInsufficientData = errors.New("not enough data")

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("SMA%d needs %d observations, have %d: %w", period, period, len(prices), ErrInsufficientData)
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// LatestSMA returns the most recent SMA value rounded to 2 decimals.
func LatestSMA(closes []float64, period int) (float64, error) {
	ma, err := CalculateSMA(closes, period)
	if err != nil {
		return 0, err
	}
	return Round2(ma), nil
}

// PriorSMA returns the SMA whose window ends daysAgo sessions before the last close,
// rounded to 2 decimals. PriorSMA(closes, 200, 0) equals LatestSMA(closes, 200).
func PriorSMA(closes []float64, period, daysAgo int) (float64, error) {
	if daysAgo < 0 {
		return 0, errors.New("daysAgo must not be negative")
	}
	if len(closes)-daysAgo < period {
		return 0, fmt.Errorf("SMA%d %d sessions back needs %d observations, have %d: %w",
			period, daysAgo, period+daysAgo, len(closes), ErrInsufficientData)
	}
	return LatestSMA(closes[:len(closes)-daysAgo], period)
}
