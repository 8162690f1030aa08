// Package journal keeps a sqlite record of completed backtest runs
// and their trade logs, so parameter sweeps can be compared later.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jackliao/marketmood/internal/backtest"
	"github.com/jackliao/marketmood/internal/core"
	"github.com/jackliao/marketmood/internal/signal"
)

// Run is one journaled backtest
type Run struct {
	ID             string
	CreatedAt      time.Time
	StartDate      time.Time
	EndDate        time.Time
	Thresholds     signal.Thresholds
	InitialCapital float64
	FinalPosition  core.Position
	Stats          backtest.Summary
}

// Journal is a sqlite-backed run store
type Journal struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the journal database
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, core.WrapError(core.ErrJournalFailed, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, core.WrapError(core.ErrJournalFailed, err)
	}
	return &Journal{db: db}, nil
}

// RecordRun persists a completed backtest and returns its run ID
func (j *Journal) RecordRun(ctx context.Context, res *backtest.Result, th signal.Thresholds, capital float64) (string, error) {
	if len(res.Equity) == 0 {
		return "", core.WrapError(core.ErrJournalFailed, core.ErrNoData)
	}

	runID := uuid.NewString()
	stats := res.Stats

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", core.WrapError(core.ErrJournalFailed, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created_at, start_date, end_date,
		 buy_fear_greed_max, buy_vix_min, sell_fear_greed_min, sell_vix_max,
		 initial_capital, final_position,
		 total_return, cagr, annualized_vol, sharpe_ratio, max_drawdown,
		 trade_count, win_rate, avg_holding_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(),
		res.Equity[0].Date, res.Equity[len(res.Equity)-1].Date,
		th.BuyFearGreedMax, th.BuyVIXMin, th.SellFearGreedMin, th.SellVIXMax,
		capital, string(res.FinalPosition),
		stats.TotalReturn, stats.CAGR, stats.AnnualizedVolatility,
		stats.SharpeRatio, stats.MaxDrawdown,
		stats.TradeCount, stats.WinRate, stats.AvgHoldingDays,
	)
	if err != nil {
		return "", core.WrapError(core.ErrJournalFailed, err)
	}

	for _, t := range res.Trades {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO trades
			(run_id, entry_date, entry_price, exit_date, exit_price,
			 holding_days, pnl_pct, unrealized)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, t.EntryDate, t.EntryPrice, t.ExitDate, t.ExitPrice,
			t.HoldingDays, t.PnLPct, t.Unrealized,
		)
		if err != nil {
			return "", core.WrapError(core.ErrJournalFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", core.WrapError(core.ErrJournalFailed, err)
	}
	return runID, nil
}

// GetRun loads one journaled run by ID
func (j *Journal) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, start_date, end_date,
		       buy_fear_greed_max, buy_vix_min, sell_fear_greed_min, sell_vix_max,
		       initial_capital, final_position,
		       total_return, cagr, annualized_vol, sharpe_ratio, max_drawdown,
		       trade_count, win_rate, avg_holding_days
		FROM runs WHERE run_id = ?`, runID)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, core.WrapError(core.ErrNoData, err)
	}
	if err != nil {
		return Run{}, core.WrapError(core.ErrJournalFailed, err)
	}
	return r, nil
}

// ListRuns returns all journaled runs, newest first
func (j *Journal) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, created_at, start_date, end_date,
		       buy_fear_greed_max, buy_vix_min, sell_fear_greed_min, sell_vix_max,
		       initial_capital, final_position,
		       total_return, cagr, annualized_vol, sharpe_ratio, max_drawdown,
		       trade_count, win_rate, avg_holding_days
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, core.WrapError(core.ErrJournalFailed, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, core.WrapError(core.ErrJournalFailed, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrJournalFailed, err)
	}
	return runs, nil
}

// ListTrades returns the trade log of one run in entry order
func (j *Journal) ListTrades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT entry_date, entry_price, exit_date, exit_price,
		       holding_days, pnl_pct, unrealized
		FROM trades WHERE run_id = ? ORDER BY entry_date`, runID)
	if err != nil {
		return nil, core.WrapError(core.ErrJournalFailed, err)
	}
	defer rows.Close()

	var trades []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		if err := rows.Scan(&t.EntryDate, &t.EntryPrice, &t.ExitDate, &t.ExitPrice,
			&t.HoldingDays, &t.PnLPct, &t.Unrealized); err != nil {
			return nil, core.WrapError(core.ErrJournalFailed, err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrJournalFailed, err)
	}
	return trades, nil
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var position string
	err := s.Scan(&r.ID, &r.CreatedAt, &r.StartDate, &r.EndDate,
		&r.Thresholds.BuyFearGreedMax, &r.Thresholds.BuyVIXMin,
		&r.Thresholds.SellFearGreedMin, &r.Thresholds.SellVIXMax,
		&r.InitialCapital, &position,
		&r.Stats.TotalReturn, &r.Stats.CAGR, &r.Stats.AnnualizedVolatility,
		&r.Stats.SharpeRatio, &r.Stats.MaxDrawdown,
		&r.Stats.TradeCount, &r.Stats.WinRate, &r.Stats.AvgHoldingDays)
	if err != nil {
		return Run{}, err
	}
	r.FinalPosition = core.Position(position)
	return r, nil
}
