package model

// IndicatorSet holds the values the trend template is evaluated against.
type IndicatorSet struct {
	CurrentClose float64 `json:"current_close"`
	SMA50        float64 `json:"sma_50"`
	SMA150       float64 `json:"sma_150"`
	SMA200       float64 `json:"sma_200"`
	SMA200Prior  float64 `json:"sma_200_20_days_ago"` // SMA200 as of 20 sessions back
	Low52w       float64 `json:"low_52_week"`
	High52w      float64 `json:"high_52_week"`
	RSRating     float64 `json:"rs_rating"`
}
