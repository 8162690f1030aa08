package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jackliao/marketmood/internal/backtest"
	"github.com/jackliao/marketmood/internal/config"
	"github.com/jackliao/marketmood/internal/dataset"
	"github.com/jackliao/marketmood/internal/journal"
	"github.com/jackliao/marketmood/internal/metrics"
	"github.com/jackliao/marketmood/internal/report"
	"github.com/jackliao/marketmood/internal/signal"
	"github.com/jackliao/marketmood/internal/storage/archive"
)

var backtestTrades bool

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the cached signal table",
	Long: `Replays the cached signal table through the position accounting
engine and prints the performance summary. Signals execute at the
close of the day they appear; returns accrue from the next day.`,
	RunE: runBacktestCmd,
}

func init() {
	backtestCmd.Flags().BoolVar(&backtestTrades, "trades", false, "print the trade log")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	reg := newRegistry(cfg)
	defer flushMetrics(log, reg)

	res, err := replayBacktest(cmd, cfg, log, reg)
	if err != nil {
		return err
	}

	fmt.Print(report.Render(res))
	if backtestTrades {
		fmt.Println()
		fmt.Print(report.RenderTrades(res.Trades))
	}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.DSN)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer j.Close()

		runID, err := j.RecordRun(cmd.Context(), res, thresholdsFrom(cfg), cfg.Backtest.InitialCapital)
		if err != nil {
			return fmt.Errorf("journaling run: %w", err)
		}
		if reg != nil {
			reg.RecordJournalWrite()
		}
		log.Info("run journaled", zap.String("run_id", runID))
		fmt.Printf("\nJournaled as run %s\n", runID)
	}

	return nil
}

// replayBacktest loads the cached signal table and runs it through the
// accounting engine. Shared by the backtest and report commands.
func replayBacktest(cmd *cobra.Command, cfg *config.Config, log *zap.Logger, reg *metrics.Registry) (*backtest.Result, error) {
	store, err := newStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	raw, err := store.Read(cmd.Context(), archive.SignalsPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s (run signals first?): %w", archive.SignalsPath, err)
	}
	aligned, signals, err := dataset.ReadSignals(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing signal table: %w", err)
	}

	engine, err := backtest.New(backtest.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		ClosePolicy:    backtest.ClosePolicy(cfg.Backtest.ClosePolicy),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("creating backtest engine: %w", err)
	}

	began := time.Now()
	res, err := engine.Run(aligned.Prices, signals)

	if reg != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		reg.RecordBacktest(status, time.Since(began).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("running backtest: %w", err)
	}

	return res, nil
}

func thresholdsFrom(cfg *config.Config) signal.Thresholds {
	return signal.Thresholds{
		BuyFearGreedMax:  cfg.Signals.BuyFearGreedMax,
		BuyVIXMin:        cfg.Signals.BuyVIXMin,
		SellFearGreedMin: cfg.Signals.SellFearGreedMin,
		SellVIXMax:       cfg.Signals.SellVIXMax,
	}
}
