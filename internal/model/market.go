package model

import "time"

// OHLCV represents a single daily bar. AdjClose is the split/dividend
// adjusted close used by every screening indicator.
type OHLCV struct {
	Time     time.Time `json:"time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   float64   `json:"volume"`
}

// PriceSeries holds the daily bars of one symbol in ascending time order.
// It is treated as read-only once a fetcher has returned it.
type PriceSeries struct {
	Symbol    string    `json:"symbol"`
	Bars      []OHLCV   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// AdjCloses returns a fresh slice of adjusted closes.
func (s *PriceSeries) AdjCloses() []float64 {
	if s == nil {
		return nil
	}
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.AdjClose
	}
	return closes
}
