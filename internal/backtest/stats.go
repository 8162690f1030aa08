package backtest

import (
	"math"

	"github.com/jackliao/marketmood/internal/core"
	"github.com/jackliao/marketmood/internal/signal"
)

// tradingDaysPerYear is the annualization base for daily returns
const tradingDaysPerYear = 252

// Summarize computes performance statistics from an equity curve, a
// trade log and the signal series that drove them. It is a pure
// function and degrades to sentinel values (0) instead of failing on
// empty trade logs or zero-variance return series.
func Summarize(equity []EquityPoint, trades []Trade, signals []core.Signal) Summary {
	s := Summary{
		TradeCount: len(trades),
		Signals:    signal.Count(signals),
	}

	if len(equity) > 0 {
		first := equity[0].Value
		last := equity[len(equity)-1].Value
		s.TotalReturn = last/first - 1

		if elapsed := len(equity) - 1; elapsed > 0 {
			s.CAGR = math.Pow(last/first, tradingDaysPerYear/float64(elapsed)) - 1
		}
	}

	returns := dailyReturns(equity)
	if sd := stdDev(returns); sd > 0 {
		s.AnnualizedVolatility = sd * math.Sqrt(tradingDaysPerYear)
		s.SharpeRatio = mean(returns) / sd * math.Sqrt(tradingDaysPerYear)
	}

	s.MaxDrawdown = maxDrawdown(equity)

	if len(trades) > 0 {
		var wins int
		var holding float64
		for _, t := range trades {
			if t.IsWin() {
				wins++
			}
			holding += float64(t.HoldingDays)
		}
		s.WinRate = float64(wins) / float64(len(trades))
		s.AvgHoldingDays = holding / float64(len(trades))
	}

	return s
}

// dailyReturns derives simple returns from consecutive equity values
func dailyReturns(equity []EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		returns = append(returns, equity[i].Value/equity[i-1].Value-1)
	}
	return returns
}

// maxDrawdown finds the largest peak-to-trough decline of the equity
// curve, as a non-positive fraction.
func maxDrawdown(equity []EquityPoint) float64 {
	var maxDD float64
	var peak float64

	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := p.Value/peak - 1
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the sample standard deviation; 0 for fewer than 2 points
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var variance float64
	for _, x := range xs {
		variance += (x - m) * (x - m)
	}
	return math.Sqrt(variance / float64(len(xs)-1))
}
