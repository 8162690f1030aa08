package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackliao/marketmood/internal/journal"
	"github.com/jackliao/marketmood/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List journaled backtest runs",
	Long: `Without arguments, lists every run in the journal, newest first.
With a run ID, prints that run's parameters and trade log.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	j, err := journal.Open(cfg.Journal.DSN)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer j.Close()

	ctx := cmd.Context()

	if len(args) == 1 {
		run, err := j.GetRun(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading run: %w", err)
		}
		trades, err := j.ListTrades(ctx, run.ID)
		if err != nil {
			return fmt.Errorf("loading trades: %w", err)
		}

		fmt.Printf("Run %s (recorded %s)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("Window:     %s to %s\n",
			run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02"))
		fmt.Printf("Thresholds: buy FG<=%.0f VIX>=%.0f, sell FG>=%.0f VIX<=%.0f\n",
			run.Thresholds.BuyFearGreedMax, run.Thresholds.BuyVIXMin,
			run.Thresholds.SellFearGreedMin, run.Thresholds.SellVIXMax)
		fmt.Printf("Return:     %+.2f%%  Sharpe %.2f  MaxDD %.2f%%  Trades %d  WinRate %.2f%%\n",
			run.Stats.TotalReturn*100, run.Stats.SharpeRatio,
			run.Stats.MaxDrawdown*100, run.Stats.TradeCount, run.Stats.WinRate*100)
		fmt.Println()
		fmt.Print(report.RenderTrades(trades))
		return nil
	}

	runs, err := j.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No journaled runs.")
		return nil
	}

	fmt.Printf("%-36s %-16s %-23s %8s %7s %7s\n",
		"RUN", "RECORDED", "WINDOW", "RETURN", "SHARPE", "TRADES")
	for _, r := range runs {
		fmt.Printf("%-36s %-16s %s..%s %+7.2f%% %7.2f %7d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"),
			r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"),
			r.Stats.TotalReturn*100, r.Stats.SharpeRatio, r.Stats.TradeCount)
	}
	return nil
}
