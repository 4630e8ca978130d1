package calculator

import "github.com/shopspring/decimal"

// Round2 rounds v to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
