package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackliao/marketmood/internal/core"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func priceSeries(closes ...float64) []core.PriceRecord {
	prices := make([]core.PriceRecord, len(closes))
	for i, c := range closes {
		prices[i] = core.PriceRecord{Date: day(i), Close: c}
	}
	return prices
}

func sig(actions ...core.Signal) []core.Signal {
	return actions
}

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

const hold, buy, sell = core.SignalHold, core.SignalBuy, core.SignalSell

func TestEngine_Run_RoundTrip(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	// BUY executes at day-2 close (101), SELL at day-4 close (102).
	// With the one-day lag, equity is in cash through day 2, tracks
	// the 2->3 and 3->4 returns while long, then sits in cash again.
	prices := priceSeries(100, 101, 99, 102, 105)
	signals := sig(hold, buy, hold, sell, hold)

	res, err := e.Run(prices, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Equity) != len(prices) {
		t.Fatalf("len(equity) = %d, want %d", len(res.Equity), len(prices))
	}
	if len(res.Trades) != 1 {
		t.Fatalf("len(trades) = %d, want 1", len(res.Trades))
	}

	tr := res.Trades[0]
	if !tr.EntryDate.Equal(day(1)) || tr.EntryPrice != 101 {
		t.Errorf("entry = (%v, %v), want (day 1, 101)", tr.EntryDate, tr.EntryPrice)
	}
	if !tr.ExitDate.Equal(day(3)) || tr.ExitPrice != 102 {
		t.Errorf("exit = (%v, %v), want (day 3, 102)", tr.ExitDate, tr.ExitPrice)
	}
	if tr.HoldingDays != 2 {
		t.Errorf("HoldingDays = %d, want 2", tr.HoldingDays)
	}
	wantPnL := 102.0/101.0 - 1
	if math.Abs(tr.PnLPct-wantPnL) > 1e-12 {
		t.Errorf("PnLPct = %v, want %v", tr.PnLPct, wantPnL)
	}
	if tr.Unrealized {
		t.Error("a SELL-closed trade should not be flagged unrealized")
	}

	wantEquity := []float64{
		1.0,
		1.0,                                // flat during day 1
		1.0 * 99 / 101,                     // long during day 2
		1.0 * 99 / 101 * 102 / 99,          // long during day 3
		1.0 * 99 / 101 * 102 / 99,          // flat again during day 4
	}
	for i, want := range wantEquity {
		if math.Abs(res.Equity[i].Value-want) > 1e-12 {
			t.Errorf("equity[%d] = %v, want %v", i, res.Equity[i].Value, want)
		}
	}

	if res.FinalPosition != core.PositionFlat {
		t.Errorf("FinalPosition = %s, want FLAT", res.FinalPosition)
	}
	if res.Open != nil {
		t.Error("no open trade expected after a SELL")
	}
}

func TestEngine_Run_AllHold(t *testing.T) {
	e := mustEngine(t, Config{InitialCapital: 1000, ClosePolicy: MarkToLast})

	prices := priceSeries(100, 90, 110, 80, 120)
	signals := sig(hold, hold, hold, hold, hold)

	res, err := e.Run(prices, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 0 {
		t.Errorf("tradeCount = %d, want 0", len(res.Trades))
	}
	for i, p := range res.Equity {
		if p.Value != 1000 {
			t.Errorf("equity[%d] = %v, want constant 1000", i, p.Value)
		}
	}
	if res.Stats.MaxDrawdown != 0 {
		t.Errorf("MaxDrawdown = %v, want 0", res.Stats.MaxDrawdown)
	}
	if res.Stats.SharpeRatio != 0 {
		t.Errorf("SharpeRatio sentinel = %v, want 0 for zero variance", res.Stats.SharpeRatio)
	}
	if res.Stats.WinRate != 0 {
		t.Errorf("WinRate = %v, want 0 with no trades", res.Stats.WinRate)
	}
}

func TestEngine_Run_ExecutionLag(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	// A BUY on day 1 must not expose equity to day 1's return
	prices := priceSeries(100, 200, 200)
	signals := sig(hold, buy, hold)

	res, err := e.Run(prices, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Equity[1].Value != 1.0 {
		t.Errorf("equity[1] = %v; signal day's own return must not count", res.Equity[1].Value)
	}
}

func TestEngine_Run_EquityCausality(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	prices := priceSeries(100, 101, 99, 102, 105)
	signals := sig(hold, hold, buy, hold, hold)

	before, err := e.Run(prices, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Day 2 is the BUY execution day: the position is still flat
	// during it, so changing its close moves the entry price but not
	// equity at day 2 or earlier. The effect shows from day 3 on.
	mutated := priceSeries(100, 101, 90, 102, 105)
	after, err := e.Run(mutated, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := 0; i <= 2; i++ {
		if before.Equity[i].Value != after.Equity[i].Value {
			t.Errorf("equity[%d] changed after mutating the day-2 close", i)
		}
	}
	if before.Equity[3].Value == after.Equity[3].Value {
		t.Error("entry price change should affect equity from day 3 on")
	}
}

func TestEngine_Run_DuplicateSignalsAreNoOps(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	prices := priceSeries(100, 101, 102, 103, 104, 105)
	signals := sig(sell, buy, buy, sell, sell, hold)

	res, err := e.Run(prices, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("len(trades) = %d, want 1 (duplicates ignored)", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.EntryPrice != 101 || tr.ExitPrice != 103 {
		t.Errorf("trade = entry %v exit %v, want 101 -> 103", tr.EntryPrice, tr.ExitPrice)
	}
	if res.FinalPosition != core.PositionFlat {
		t.Errorf("FinalPosition = %s, want FLAT", res.FinalPosition)
	}
}

func TestEngine_Run_OpenPosition_MarkToLast(t *testing.T) {
	e := mustEngine(t, Config{InitialCapital: 1, ClosePolicy: MarkToLast})

	prices := priceSeries(100, 110, 121)
	signals := sig(buy, hold, hold)

	res, err := e.Run(prices, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("len(trades) = %d, want 1 force-closed trade", len(res.Trades))
	}
	tr := res.Trades[0]
	if !tr.Unrealized {
		t.Error("force-closed trade should be flagged unrealized")
	}
	if tr.ExitPrice != 121 || !tr.ExitDate.Equal(day(2)) {
		t.Errorf("mark = (%v, %v), want (day 2, 121)", tr.ExitDate, tr.ExitPrice)
	}
	if res.FinalPosition != core.PositionLong {
		t.Errorf("FinalPosition = %s, want LONG", res.FinalPosition)
	}
	if res.Open != nil {
		t.Error("mark_to_last should not also report an open trade")
	}
}

func TestEngine_Run_OpenPosition_ReportOpen(t *testing.T) {
	e := mustEngine(t, Config{InitialCapital: 1, ClosePolicy: ReportOpen})

	prices := priceSeries(100, 110, 121)
	signals := sig(buy, hold, hold)

	res, err := e.Run(prices, signals)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Trades) != 0 {
		t.Errorf("len(trades) = %d, want 0 under report_open", len(res.Trades))
	}
	if res.Open == nil {
		t.Fatal("expected the open trade to be reported")
	}
	if res.Open.ExitPrice != 121 || !res.Open.Unrealized {
		t.Errorf("open trade mark = %+v, want unrealized at 121", res.Open)
	}
	if res.Stats.TradeCount != 0 {
		t.Errorf("Stats.TradeCount = %d, want 0", res.Stats.TradeCount)
	}
}

func TestEngine_Run_Validation(t *testing.T) {
	e := mustEngine(t, DefaultConfig())

	t.Run("empty", func(t *testing.T) {
		if _, err := e.Run(nil, nil); !errors.Is(err, core.ErrNoData) {
			t.Errorf("expected ErrNoData, got %v", err)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := e.Run(priceSeries(100, 101), sig(hold))
		if !errors.Is(err, core.ErrSeriesMisaligned) {
			t.Errorf("expected ErrSeriesMisaligned, got %v", err)
		}
	})

	t.Run("nan close", func(t *testing.T) {
		prices := priceSeries(100, 101)
		prices[1].Close = math.NaN()
		_, err := e.Run(prices, sig(hold, hold))
		if !errors.Is(err, core.ErrBadPrice) {
			t.Errorf("expected ErrBadPrice, got %v", err)
		}
	})

	t.Run("non-positive close", func(t *testing.T) {
		_, err := e.Run(priceSeries(100, 0), sig(hold, hold))
		if !errors.Is(err, core.ErrBadPrice) {
			t.Errorf("expected ErrBadPrice, got %v", err)
		}
	})

	t.Run("unsorted dates", func(t *testing.T) {
		prices := priceSeries(100, 101)
		prices[1].Date = prices[0].Date
		_, err := e.Run(prices, sig(hold, hold))
		if !errors.Is(err, core.ErrSeriesMisaligned) {
			t.Errorf("expected ErrSeriesMisaligned, got %v", err)
		}
	})

	t.Run("unknown signal", func(t *testing.T) {
		_, err := e.Run(priceSeries(100, 101), []core.Signal{hold, "SHORT"})
		if !errors.Is(err, core.ErrSeriesMisaligned) {
			t.Errorf("expected ErrSeriesMisaligned, got %v", err)
		}
	})
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{InitialCapital: 0}, nil); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("zero capital should be rejected, got %v", err)
	}
	if _, err := New(Config{InitialCapital: -5}, nil); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("negative capital should be rejected, got %v", err)
	}
	if _, err := New(Config{InitialCapital: 1, ClosePolicy: "liquidate"}, nil); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("unknown policy should be rejected, got %v", err)
	}

	// Empty policy defaults to mark_to_last
	e, err := New(Config{InitialCapital: 1}, nil)
	if err != nil {
		t.Fatalf("New with empty policy failed: %v", err)
	}
	if e.cfg.ClosePolicy != MarkToLast {
		t.Errorf("default policy = %s, want mark_to_last", e.cfg.ClosePolicy)
	}
}
