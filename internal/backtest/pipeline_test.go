package backtest

import (
	"math"
	"testing"

	"github.com/jackliao/marketmood/internal/core"
	"github.com/jackliao/marketmood/internal/signal"
)

// Runs the full signal-to-accounting pipeline over a scripted window
// of sentiment episodes and checks the distribution, trade log and
// equity against hand-computed values. Mirrors the shape of the
// historical reference run (long HOLD stretches, a few BUY/SELL
// episodes, a position still open at the end) on a window small enough
// to verify by hand.
func TestPipeline_ContrarianWindow(t *testing.T) {
	const days = 30

	sentiment := make([]core.SentimentRecord, days)
	prices := make([]core.PriceRecord, days)
	for i := 0; i < days; i++ {
		sentiment[i] = core.SentimentRecord{Date: day(i), VIX: 20, FearGreed: 50}
		prices[i] = core.PriceRecord{Date: day(i), Close: 100 + float64(i)}
	}

	// Scripted episodes. Day 13 is extreme fear while already long,
	// so hysteresis keeps it a HOLD; day 5 has a missing reading.
	sentiment[2] = core.SentimentRecord{Date: day(2), VIX: 35, FearGreed: 10}   // BUY
	sentiment[5] = core.SentimentRecord{Date: day(5), VIX: 20, FearGreed: math.NaN()}
	sentiment[10] = core.SentimentRecord{Date: day(10), VIX: 12, FearGreed: 90} // SELL
	sentiment[12] = core.SentimentRecord{Date: day(12), VIX: 40, FearGreed: 12} // BUY
	sentiment[13] = core.SentimentRecord{Date: day(13), VIX: 38, FearGreed: 8}  // HOLD (held)
	sentiment[20] = core.SentimentRecord{Date: day(20), VIX: 14, FearGreed: 85} // SELL
	sentiment[25] = core.SentimentRecord{Date: day(25), VIX: 33, FearGreed: 15} // BUY, stays open

	se, err := signal.NewEngine(signal.DefaultThresholds(), nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	signals, err := se.Generate(sentiment)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	counts := signal.Count(signals)
	if counts != (signal.Counts{Hold: 25, Buy: 3, Sell: 2}) {
		t.Fatalf("signal distribution = %+v, want {Hold:25 Buy:3 Sell:2}", counts)
	}

	e := mustEngine(t, DefaultConfig())
	res, err := e.Run(prices, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Stats.TradeCount != 3 {
		t.Fatalf("TradeCount = %d, want 3", res.Stats.TradeCount)
	}
	if res.FinalPosition != core.PositionLong {
		t.Errorf("FinalPosition = %s, want LONG", res.FinalPosition)
	}
	if !res.Trades[2].Unrealized {
		t.Error("last trade should be the marked open position")
	}
	if res.Trades[0].HoldingDays != 8 || res.Trades[1].HoldingDays != 8 || res.Trades[2].HoldingDays != 4 {
		t.Errorf("holding days = %d, %d, %d, want 8, 8, 4",
			res.Trades[0].HoldingDays, res.Trades[1].HoldingDays, res.Trades[2].HoldingDays)
	}

	// Prices only rise, so every round trip wins.
	if res.Stats.WinRate != 1.0 {
		t.Errorf("WinRate = %v, want 1.0", res.Stats.WinRate)
	}
	if math.Abs(res.Stats.AvgHoldingDays-20.0/3) > 1e-12 {
		t.Errorf("AvgHoldingDays = %v, want %v", res.Stats.AvgHoldingDays, 20.0/3)
	}

	// Long during days 3-10, 13-20 and 26-29; in cash otherwise.
	wantFinal := (110.0 / 102) * (120.0 / 112) * (129.0 / 125)
	gotFinal := res.Equity[len(res.Equity)-1].Value
	if math.Abs(gotFinal-wantFinal) > 1e-12 {
		t.Errorf("final equity = %v, want %v", gotFinal, wantFinal)
	}
	if math.Abs(res.Stats.TotalReturn-(wantFinal-1)) > 1e-12 {
		t.Errorf("TotalReturn = %v, want %v", res.Stats.TotalReturn, wantFinal-1)
	}
}
