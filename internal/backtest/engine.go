package backtest

import (
	"fmt"
	"time"

	"github.com/jackliao/marketmood/internal/core"
	"go.uber.org/zap"
)

// Engine simulates a fully-invested-or-flat long-only strategy over a
// daily price series driven by a pre-computed signal series.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a backtest engine with a validated configuration
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if cfg.InitialCapital <= 0 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial capital must be positive, got %f", cfg.InitialCapital))
	}
	switch cfg.ClosePolicy {
	case MarkToLast, ReportOpen:
	case "":
		cfg.ClosePolicy = MarkToLast
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown close policy: %s", cfg.ClosePolicy))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Run replays the signal series against the price series and returns
// the equity curve, the trade log, and derived statistics.
//
// Signals execute at their own day's close (a BUY on day t enters at
// close[t]) but only affect equity from the next day on: the position
// held during day t is whatever the signals up to day t-1 produced.
// This one-day execution lag is what keeps the simulation free of
// look-ahead bias.
func (e *Engine) Run(prices []core.PriceRecord, signals []core.Signal) (*Result, error) {
	if err := validate(prices, signals); err != nil {
		return nil, err
	}

	equity := make([]EquityPoint, len(prices))
	equity[0] = EquityPoint{Date: prices[0].Date, Value: e.cfg.InitialCapital}

	var trades []Trade
	var open *Trade
	position := core.PositionFlat

	for t := 0; t < len(prices); t++ {
		if t > 0 {
			// position here is the state as of day t-1's close,
			// i.e. the position held during day t
			value := equity[t-1].Value
			if position == core.PositionLong {
				value *= prices[t].Close / prices[t-1].Close
			}
			equity[t] = EquityPoint{Date: prices[t].Date, Value: value}
		}

		// Apply the day-t signal at day-t's close. A BUY while long
		// or a SELL while flat is a no-op, never a fault.
		switch signals[t] {
		case core.SignalBuy:
			if position == core.PositionFlat {
				position = core.PositionLong
				open = &Trade{
					EntryDate:  prices[t].Date,
					EntryPrice: prices[t].Close,
				}
			}
		case core.SignalSell:
			if position == core.PositionLong {
				position = core.PositionFlat
				open.ExitDate = prices[t].Date
				open.ExitPrice = prices[t].Close
				open.HoldingDays = daysBetween(open.EntryDate, open.ExitDate)
				open.PnLPct = open.ExitPrice/open.EntryPrice - 1
				trades = append(trades, *open)
				open = nil
			}
		}
	}

	result := &Result{
		Equity:        equity,
		Trades:        trades,
		FinalPosition: position,
	}

	// The run ends while still long: value the open trade at the
	// last close and dispose of it per policy.
	if open != nil {
		last := prices[len(prices)-1]
		open.ExitDate = last.Date
		open.ExitPrice = last.Close
		open.HoldingDays = daysBetween(open.EntryDate, open.ExitDate)
		open.PnLPct = open.ExitPrice/open.EntryPrice - 1
		open.Unrealized = true

		if e.cfg.ClosePolicy == MarkToLast {
			result.Trades = append(result.Trades, *open)
		} else {
			result.Open = open
		}
		e.logger.Info("run ended with an open position",
			zap.String("policy", string(e.cfg.ClosePolicy)),
			zap.Time("entry", open.EntryDate),
			zap.Float64("mark", open.ExitPrice),
		)
	}

	result.Stats = Summarize(result.Equity, result.Trades, signals)
	return result, nil
}

// validate fails fast on anything that would corrupt the accounting
// loop, so a run that starts always completes.
func validate(prices []core.PriceRecord, signals []core.Signal) error {
	if len(prices) == 0 {
		return core.ErrNoData
	}
	if len(prices) != len(signals) {
		return core.WrapError(core.ErrSeriesMisaligned,
			fmt.Errorf("%d prices vs %d signals", len(prices), len(signals)))
	}
	for i, p := range prices {
		if !p.IsValid() {
			return core.WrapError(core.ErrBadPrice,
				fmt.Errorf("row %d (%s): close %v", i, p.Date.Format("2006-01-02"), p.Close))
		}
		if i > 0 && !p.Date.After(prices[i-1].Date) {
			return core.WrapError(core.ErrSeriesMisaligned,
				fmt.Errorf("price dates not strictly increasing at row %d", i))
		}
	}
	for i, s := range signals {
		if !s.IsValid() {
			return core.WrapError(core.ErrSeriesMisaligned,
				fmt.Errorf("unknown signal %q at row %d", s, i))
		}
	}
	return nil
}

// daysBetween returns whole calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
