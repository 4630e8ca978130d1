package strategy

import "TrendSentinel/internal/model"

// Evaluate runs all eight trend template conditions. Every condition is
// evaluated so the check can report each failure; the ticker passes only
// when all of them hold.
func Evaluate(ind *model.IndicatorSet) *model.TemplateCheck {
	conditions := []model.ConditionResult{
		priceAboveLongMAs(ind),
		sma150AboveSMA200(ind),
		sma200Rising(ind),
		maStack(ind),
		priceAboveSMA50(ind),
		aboveLow(ind),
		nearHigh(ind),
		strongRS(ind),
	}

	passed := true
	for _, c := range conditions {
		passed = passed && c.Passed
	}

	return &model.TemplateCheck{
		Conditions: conditions,
		Passed:     passed,
	}
}

// Passes reports whether ind satisfies the trend template.
func Passes(ind *model.IndicatorSet) bool {
	return Evaluate(ind).Passed
}
