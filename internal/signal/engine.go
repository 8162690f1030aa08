package signal

import (
	"fmt"

	"github.com/jackliao/marketmood/internal/core"
	"go.uber.org/zap"
)

// Thresholds holds the four knobs of the contrarian sentiment rule.
// Extreme fear (FearGreed <= BuyFearGreedMax and VIX >= BuyVIXMin) is
// bullish; extreme greed (FearGreed >= SellFearGreedMin and
// VIX <= SellVIXMax) is bearish.
type Thresholds struct {
	BuyFearGreedMax  float64
	BuyVIXMin        float64
	SellFearGreedMin float64
	SellVIXMax       float64
}

// DefaultThresholds returns the historical reference thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BuyFearGreedMax:  20,
		BuyVIXMin:        30,
		SellFearGreedMin: 80,
		SellVIXMax:       15,
	}
}

// Validate checks that the thresholds describe a usable rule.
func (t Thresholds) Validate() error {
	if t.BuyFearGreedMax < 0 || t.BuyFearGreedMax > 100 ||
		t.SellFearGreedMin < 0 || t.SellFearGreedMin > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fear/greed thresholds must be within [0, 100]"))
	}
	if t.BuyFearGreedMax >= t.SellFearGreedMin {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fear threshold %.1f not below greed threshold %.1f",
				t.BuyFearGreedMax, t.SellFearGreedMin))
	}
	if t.BuyVIXMin <= 0 || t.SellVIXMax <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("VIX thresholds must be positive"))
	}
	if t.SellVIXMax >= t.BuyVIXMin {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("sell VIX ceiling %.1f not below buy VIX floor %.1f",
				t.SellVIXMax, t.BuyVIXMin))
	}
	return nil
}

// Engine turns a daily sentiment series into HOLD/BUY/SELL decisions
type Engine struct {
	thresholds Thresholds
	logger     *zap.Logger
}

// NewEngine creates a signal engine with validated thresholds
func NewEngine(t Thresholds, logger *zap.Logger) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{thresholds: t, logger: logger}, nil
}

// Generate maps each sentiment record to a signal, one per input day.
// Each decision uses only that day's record plus the held-state
// accumulated from earlier days: BUY is emitted only while flat, SELL
// only while long, so the sequence alternates BUY/SELL by
// construction. The held-state is threaded through step explicitly
// rather than stored on the engine, so Generate is safe to call
// concurrently across parameter sweeps.
func (e *Engine) Generate(series []core.SentimentRecord) ([]core.Signal, error) {
	if len(series) == 0 {
		return nil, core.ErrNoData
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			return nil, core.WrapError(core.ErrSeriesMisaligned,
				fmt.Errorf("sentiment dates not strictly increasing at row %d (%s then %s)",
					i, series[i-1].Date.Format("2006-01-02"), series[i].Date.Format("2006-01-02")))
		}
	}

	signals := make([]core.Signal, len(series))
	held := false
	gaps := 0
	for i, rec := range series {
		if rec.HasGaps() {
			gaps++
		}
		signals[i], held = e.step(held, rec)
	}

	if gaps > 0 {
		e.logger.Warn("sentiment rows with missing values degraded to HOLD",
			zap.Int("rows", gaps))
	}
	counts := Count(signals)
	e.logger.Debug("signals generated",
		zap.Int("hold", counts.Hold),
		zap.Int("buy", counts.Buy),
		zap.Int("sell", counts.Sell),
	)

	return signals, nil
}

// step is one fold iteration: it decides the signal for a single day
// given the held-state carried in from the previous day, and returns
// the state to carry forward. Missing readings never reach the
// threshold comparisons.
func (e *Engine) step(held bool, rec core.SentimentRecord) (core.Signal, bool) {
	if rec.HasGaps() {
		return core.SignalHold, held
	}

	t := e.thresholds
	switch {
	case !held && rec.FearGreed <= t.BuyFearGreedMax && rec.VIX >= t.BuyVIXMin:
		return core.SignalBuy, true
	case held && rec.FearGreed >= t.SellFearGreedMin && rec.VIX <= t.SellVIXMax:
		return core.SignalSell, false
	default:
		return core.SignalHold, held
	}
}

// Counts is the per-action distribution of a signal series
type Counts struct {
	Hold int
	Buy  int
	Sell int
}

// Total returns the series length covered by the counts
func (c Counts) Total() int {
	return c.Hold + c.Buy + c.Sell
}

// Count tallies the distribution of a signal series
func Count(signals []core.Signal) Counts {
	var c Counts
	for _, s := range signals {
		switch s {
		case core.SignalBuy:
			c.Buy++
		case core.SignalSell:
			c.Sell++
		default:
			c.Hold++
		}
	}
	return c
}
