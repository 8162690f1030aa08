package backtest

import (
	"time"

	"github.com/jackliao/marketmood/internal/core"
	"github.com/jackliao/marketmood/internal/signal"
)

// ClosePolicy controls what happens to a position still open on the
// last day of the series.
type ClosePolicy string

const (
	// MarkToLast force-closes the position at the last available
	// close and appends it to the trade log, flagged Unrealized.
	MarkToLast ClosePolicy = "mark_to_last"
	// ReportOpen keeps the position out of the trade log and stats;
	// it is returned separately on Result.Open, valued at the last
	// close.
	ReportOpen ClosePolicy = "report_open"
)

// Config holds backtest run parameters
type Config struct {
	InitialCapital float64
	ClosePolicy    ClosePolicy
}

// DefaultConfig returns a unit-capital, mark-to-last configuration
func DefaultConfig() Config {
	return Config{
		InitialCapital: 1.0,
		ClosePolicy:    MarkToLast,
	}
}

// EquityPoint is one day of the equity curve
type EquityPoint struct {
	Date  time.Time
	Value float64
}

// Trade represents one round trip from entry to exit. A trade is
// never mutated after it is appended to the log.
type Trade struct {
	EntryDate   time.Time
	EntryPrice  float64
	ExitDate    time.Time
	ExitPrice   float64
	HoldingDays int     // calendar days between entry and exit
	PnLPct      float64 // ExitPrice/EntryPrice - 1
	Unrealized  bool    // true when the exit is a mark, not a SELL
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.PnLPct > 0
}

// Result holds the complete backtest output
type Result struct {
	Equity        []EquityPoint
	Trades        []Trade
	Open          *Trade // position still open at end, under ReportOpen
	FinalPosition core.Position
	Stats         Summary
}

// Summary holds the performance statistics derived from the equity
// curve and the trade log.
type Summary struct {
	TotalReturn          float64 // E[last]/E[0] - 1
	CAGR                 float64 // compounded over a 252-day year
	AnnualizedVolatility float64
	SharpeRatio          float64 // zero risk-free rate; 0 when undefined
	MaxDrawdown          float64 // negative fraction, 0 for a non-decreasing curve
	TradeCount           int
	WinRate              float64 // fraction in [0, 1]; 0 with no trades
	AvgHoldingDays       float64
	Signals              signal.Counts
}
