package core

import (
	"math"
	"time"
)

// Signal represents the strategy's per-day decision
type Signal string

const (
	SignalHold Signal = "HOLD"
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// IsValid checks that the signal is one of the known actions
func (s Signal) IsValid() bool {
	switch s {
	case SignalHold, SignalBuy, SignalSell:
		return true
	}
	return false
}

// Position represents the strategy's holding state
type Position string

const (
	PositionFlat Position = "FLAT"
	PositionLong Position = "LONG"
)

// SentimentRecord holds one day's sentiment readings.
// VIX or FearGreed may be NaN when the source had no value for that
// day; consumers must treat such days as HOLD.
type SentimentRecord struct {
	Date      time.Time
	VIX       float64
	FearGreed float64 // Fear & Greed index, 0-100
}

// HasGaps reports whether either sentiment reading is missing
func (r SentimentRecord) HasGaps() bool {
	return math.IsNaN(r.VIX) || math.IsNaN(r.FearGreed)
}

// PriceRecord holds one day's closing price
type PriceRecord struct {
	Date  time.Time
	Close float64
}

// IsValid checks that the close is a finite positive price
func (r PriceRecord) IsValid() bool {
	return !math.IsNaN(r.Close) && !math.IsInf(r.Close, 0) && r.Close > 0
}

// Day truncates a timestamp to its calendar day in UTC
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
