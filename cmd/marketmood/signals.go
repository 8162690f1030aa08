package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jackliao/marketmood/internal/dataset"
	"github.com/jackliao/marketmood/internal/signal"
	"github.com/jackliao/marketmood/internal/storage/archive"
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Generate contrarian signals from the cached data",
	Long: `Aligns the cached price, VIX and Fear & Greed series into one daily
table, runs the contrarian rule over it, and writes the processed
signal table back to the cache.`,
	RunE: runSignals,
}

func init() {
	rootCmd.AddCommand(signalsCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}

	reg := newRegistry(cfg)
	defer flushMetrics(log, reg)

	ctx := cmd.Context()

	missing, err := archive.MissingRaw(ctx, store)
	if err != nil {
		return fmt.Errorf("checking cache: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing cached series %s, run fetch first", strings.Join(missing, ", "))
	}

	series := make(map[string][]dataset.Point, 3)
	for _, path := range []string{archive.RawPricePath, archive.RawVIXPath, archive.RawFearGreedPath} {
		raw, err := store.Read(ctx, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		points, err := dataset.ReadSeries(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		series[path] = points
	}

	aligned, err := dataset.Merge(
		series[archive.RawPricePath],
		series[archive.RawVIXPath],
		series[archive.RawFearGreedPath],
		log,
	)
	if err != nil {
		return fmt.Errorf("aligning series: %w", err)
	}

	engine, err := signal.NewEngine(signal.Thresholds{
		BuyFearGreedMax:  cfg.Signals.BuyFearGreedMax,
		BuyVIXMin:        cfg.Signals.BuyVIXMin,
		SellFearGreedMin: cfg.Signals.SellFearGreedMin,
		SellVIXMax:       cfg.Signals.SellVIXMax,
	}, log)
	if err != nil {
		return fmt.Errorf("creating signal engine: %w", err)
	}

	signals, err := engine.Generate(aligned.Sentiment)
	if err != nil {
		return fmt.Errorf("generating signals: %w", err)
	}

	if reg != nil {
		for _, s := range signals {
			reg.RecordSignal(string(s))
		}
	}

	var buf bytes.Buffer
	if err := dataset.WriteSignals(&buf, aligned, signals); err != nil {
		return fmt.Errorf("encoding signal table: %w", err)
	}
	if err := store.Write(ctx, archive.SignalsPath, buf.Bytes()); err != nil {
		return fmt.Errorf("caching signal table: %w", err)
	}

	counts := signal.Count(signals)
	log.Info("signal table cached",
		zap.String("path", archive.SignalsPath),
		zap.Int("hold", counts.Hold),
		zap.Int("buy", counts.Buy),
		zap.Int("sell", counts.Sell),
	)
	fmt.Printf("Signals over %d days: HOLD=%d BUY=%d SELL=%d\n",
		counts.Total(), counts.Hold, counts.Buy, counts.Sell)
	fmt.Printf("Written to %s\n", archive.SignalsPath)

	return nil
}
