package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackliao/marketmood/internal/llm/factory"
	"github.com/jackliao/marketmood/internal/report"
)

var reportNarrate bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the full backtest report",
	Long: `Replays the cached signal table and prints the performance summary
with the trade log. With --narrate, asks the configured LLM provider
for a short written commentary on the results.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportNarrate, "narrate", false, "add LLM commentary (requires llm config)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
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
	fmt.Println()
	fmt.Print(report.RenderTrades(res.Trades))

	if reportNarrate {
		if cfg.LLM.Provider == "" {
			return fmt.Errorf("--narrate requires an llm provider in the config")
		}
		provider, err := factory.New(cfg.LLM)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}

		commentary, err := report.Narrate(cmd.Context(), provider, res)
		if err != nil {
			return fmt.Errorf("narrating report: %w", err)
		}
		fmt.Printf("\nCommentary (%s)\n", provider.Name())
		fmt.Println("----------")
		fmt.Println(commentary)
	}

	return nil
}
