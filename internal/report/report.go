// Package report renders backtest results for humans, as a plain-text
// summary and optionally with LLM-written commentary.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackliao/marketmood/internal/backtest"
	"github.com/jackliao/marketmood/internal/core"
	"github.com/jackliao/marketmood/internal/llm"
)

// Render formats a backtest result as a plain-text summary.
func Render(res *backtest.Result) string {
	s := res.Stats
	var b strings.Builder

	fmt.Fprintf(&b, "Backtest Summary\n")
	fmt.Fprintf(&b, "================\n")
	if len(res.Equity) > 0 {
		first := res.Equity[0]
		last := res.Equity[len(res.Equity)-1]
		fmt.Fprintf(&b, "Period:            %s to %s (%d days)\n",
			first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), len(res.Equity))
	}
	fmt.Fprintf(&b, "Total Return:      %+.2f%%\n", s.TotalReturn*100)
	fmt.Fprintf(&b, "CAGR:              %+.2f%%\n", s.CAGR*100)
	fmt.Fprintf(&b, "Annualized Vol:    %.2f%%\n", s.AnnualizedVolatility*100)
	fmt.Fprintf(&b, "Sharpe Ratio:      %.2f\n", s.SharpeRatio)
	fmt.Fprintf(&b, "Max Drawdown:      %.2f%%\n", s.MaxDrawdown*100)
	fmt.Fprintf(&b, "Trades:            %d\n", s.TradeCount)
	fmt.Fprintf(&b, "Win Rate:          %.2f%%\n", s.WinRate*100)
	fmt.Fprintf(&b, "Avg Holding Days:  %.1f\n", s.AvgHoldingDays)
	fmt.Fprintf(&b, "Signals:           HOLD=%d BUY=%d SELL=%d\n",
		s.Signals.Hold, s.Signals.Buy, s.Signals.Sell)
	fmt.Fprintf(&b, "Final Position:    %s\n", res.FinalPosition)

	if res.Open != nil {
		fmt.Fprintf(&b, "Open Position:     entered %s at %.2f\n",
			res.Open.EntryDate.Format("2006-01-02"), res.Open.EntryPrice)
	}

	return b.String()
}

// RenderTrades formats the trade log as a plain-text table.
func RenderTrades(trades []backtest.Trade) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-12s %10s %-12s %10s %6s %9s\n",
		"ENTRY", "PRICE", "EXIT", "PRICE", "DAYS", "PNL")
	for _, t := range trades {
		marker := ""
		if t.Unrealized {
			marker = " *"
		}
		fmt.Fprintf(&b, "%-12s %10.2f %-12s %10.2f %6d %+8.2f%%%s\n",
			t.EntryDate.Format("2006-01-02"), t.EntryPrice,
			t.ExitDate.Format("2006-01-02"), t.ExitPrice,
			t.HoldingDays, t.PnLPct*100, marker)
	}
	if len(trades) > 0 {
		b.WriteString("(* position still open, marked to last close)\n")
	}

	return b.String()
}

const narratePrompt = `You are a quantitative analyst reviewing the backtest of a
contrarian market-sentiment strategy. It buys the index during extreme fear
(low CNN Fear & Greed with elevated VIX) and sells during extreme greed.
Write a short, factual commentary on the results below. Note strengths,
weaknesses, and whether the trade sample is large enough to trust.
Do not invent numbers that are not in the summary.`

// Narrate asks an LLM provider for commentary on a backtest result.
func Narrate(ctx context.Context, provider llm.Provider, res *backtest.Result) (string, error) {
	resp, err := provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: narratePrompt,
		Messages: []llm.Message{
			{Role: "user", Content: Render(res)},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return "", core.WrapError(core.ErrLLMFailed, err)
	}
	return resp.Content, nil
}
