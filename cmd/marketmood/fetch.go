package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jackliao/marketmood/internal/collector"
	"github.com/jackliao/marketmood/internal/collector/feargreed"
	"github.com/jackliao/marketmood/internal/collector/yahoo"
	"github.com/jackliao/marketmood/internal/dataset"
	"github.com/jackliao/marketmood/internal/storage/archive"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download price and sentiment history into the data cache",
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	start, err := time.Parse("2006-01-02", cfg.Data.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start_date %q (expected YYYY-MM-DD): %w", cfg.Data.StartDate, err)
	}

	store, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}

	reg := newRegistry(cfg)
	defer flushMetrics(log, reg)

	ctx := cmd.Context()
	yc := yahoo.New(log)
	fg := feargreed.New(log)

	jobs := []struct {
		source    string
		symbol    string
		path      string
		column    string
		collector collector.Collector
	}{
		{"yahoo", cfg.Data.PriceSymbol, archive.RawPricePath, "close", yc},
		{"yahoo", cfg.Data.VIXSymbol, archive.RawVIXPath, "vix", yc},
		{"feargreed", feargreed.Symbol, archive.RawFearGreedPath, "fear_greed", fg},
	}

	for _, job := range jobs {
		began := time.Now()
		points, err := job.collector.FetchSeries(ctx, job.symbol, start)
		if err != nil {
			if reg != nil {
				reg.RecordFetch(job.source, "error", time.Since(began).Seconds(), 0)
			}
			return fmt.Errorf("fetching %s: %w", job.symbol, err)
		}
		if reg != nil {
			reg.RecordFetch(job.source, "ok", time.Since(began).Seconds(), len(points))
		}

		var buf bytes.Buffer
		if err := dataset.WriteSeries(&buf, job.column, points); err != nil {
			return fmt.Errorf("encoding %s: %w", job.symbol, err)
		}
		if err := store.Write(ctx, job.path, buf.Bytes()); err != nil {
			return fmt.Errorf("caching %s: %w", job.symbol, err)
		}

		log.Info("series cached",
			zap.String("symbol", job.symbol),
			zap.String("path", job.path),
			zap.Int("points", len(points)),
		)
		fmt.Printf("%-20s %6d points -> %s\n", job.symbol, len(points), job.path)
	}

	cached, err := store.List(ctx, "raw")
	if err != nil {
		return fmt.Errorf("listing cache: %w", err)
	}
	log.Info("raw cache ready", zap.Strings("paths", cached))

	return nil
}
