package strategy

import (
	"fmt"

	"TrendSentinel/internal/model"
)

// Thresholds of the trend template.
const (
	MinAboveLowRatio = 1.30 // close at least 30% above the 52-week low
	MinOfHighRatio   = 0.75 // close within 25% of the 52-week high
	MinRSRating      = 70.0
)

// priceAboveLongMAs: close > SMA150 > SMA200.
func priceAboveLongMAs(ind *model.IndicatorSet) model.ConditionResult {
	return model.ConditionResult{
		Name:       "price>sma150>sma200",
		Passed:     ind.CurrentClose > ind.SMA150 && ind.SMA150 > ind.SMA200,
		Commentary: fmt.Sprintf("%.2f / %.2f / %.2f", ind.CurrentClose, ind.SMA150, ind.SMA200),
	}
}

// sma150AboveSMA200: SMA150 > SMA200.
func sma150AboveSMA200(ind *model.IndicatorSet) model.ConditionResult {
	return model.ConditionResult{
		Name:       "sma150>sma200",
		Passed:     ind.SMA150 > ind.SMA200,
		Commentary: fmt.Sprintf("%.2f / %.2f", ind.SMA150, ind.SMA200),
	}
}

// sma200Rising: SMA200 above its value 20 sessions ago.
func sma200Rising(ind *model.IndicatorSet) model.ConditionResult {
	return model.ConditionResult{
		Name:       "sma200 rising",
		Passed:     ind.SMA200 > ind.SMA200Prior,
		Commentary: fmt.Sprintf("%.2f vs %.2f", ind.SMA200, ind.SMA200Prior),
	}
}

// maStack: SMA50 > SMA150 > SMA200.
func maStack(ind *model.IndicatorSet) model.ConditionResult {
	return model.ConditionResult{
		Name:       "sma50>sma150>sma200",
		Passed:     ind.SMA50 > ind.SMA150 && ind.SMA150 > ind.SMA200,
		Commentary: fmt.Sprintf("%.2f / %.2f / %.2f", ind.SMA50, ind.SMA150, ind.SMA200),
	}
}

// priceAboveSMA50: close > SMA50.
func priceAboveSMA50(ind *model.IndicatorSet) model.ConditionResult {
	return model.ConditionResult{
		Name:       "price>sma50",
		Passed:     ind.CurrentClose > ind.SMA50,
		Commentary: fmt.Sprintf("%.2f / %.2f", ind.CurrentClose, ind.SMA50),
	}
}

func aboveLow(ind *model.IndicatorSet) model.ConditionResult {
	floor := MinAboveLowRatio * ind.Low52w
	return model.ConditionResult{
		Name:       "price>=1.3*low52w",
		Passed:     ind.CurrentClose >= floor,
		Commentary: fmt.Sprintf("%.2f vs %.2f", ind.CurrentClose, floor),
	}
}

func nearHigh(ind *model.IndicatorSet) model.ConditionResult {
	floor := MinOfHighRatio * ind.High52w
	return model.ConditionResult{
		Name:       "price>=0.75*high52w",
		Passed:     ind.CurrentClose >= floor,
		Commentary: fmt.Sprintf("%.2f vs %.2f", ind.CurrentClose, floor),
	}
}

func strongRS(ind *model.IndicatorSet) model.ConditionResult {
	return model.ConditionResult{
		Name:       "rs>=70",
		Passed:     ind.RSRating >= MinRSRating,
		Commentary: fmt.Sprintf("RS=%.2f", ind.RSRating),
	}
}
