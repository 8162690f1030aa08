package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jackliao/marketmood/internal/config"
	"github.com/jackliao/marketmood/internal/logger"
	"github.com/jackliao/marketmood/internal/metrics"
	"github.com/jackliao/marketmood/internal/storage/archive"
)

var (
	cfgFile     string
	debug       bool
	showMetrics bool
)

var rootCmd = &cobra.Command{
	Use:   "marketmood",
	Short: "marketmood - contrarian market-sentiment strategy evaluator",
	Long: `marketmood fetches index prices and market sentiment (VIX, CNN Fear & Greed),
generates contrarian trading signals, and backtests them against history.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "dump collected metrics to stderr on exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and builds the logger shared by all subcommands.
func setup() (*config.Config, *zap.Logger, error) {
	log := logger.Must(debug)

	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, log, nil
}

// newRegistry returns a metrics registry when metrics are enabled,
// nil otherwise. Record* calls are guarded by the nil check at each
// call site.
func newRegistry(cfg *config.Config) *metrics.Registry {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewRegistry()
}

// emitMetrics writes every gathered metric family in the Prometheus
// text exposition format.
func emitMetrics(w io.Writer, reg *metrics.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// flushMetrics dumps the registry to stderr when --metrics was given.
// Deferred by each subcommand so partial runs still report.
func flushMetrics(log *zap.Logger, reg *metrics.Registry) {
	if reg == nil || !showMetrics {
		return
	}
	if err := emitMetrics(os.Stderr, reg); err != nil {
		log.Warn("dumping metrics failed", zap.Error(err))
	}
}

func newStorage(cfg *config.Config) (archive.Storage, error) {
	switch cfg.Storage.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Prefix:    cfg.Storage.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Storage.Path)
	}
}
