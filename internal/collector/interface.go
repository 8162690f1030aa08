package collector

import (
	"context"
	"time"

	"github.com/jackliao/marketmood/internal/dataset"
	"go.uber.org/zap"
)

// Config holds collector configuration
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Defaults returns the retry policy used when none is configured
func Defaults() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Collector defines the interface for daily-series data sources
type Collector interface {
	Name() string

	// FetchSeries returns one dated value per day for the symbol,
	// from start to the latest available observation.
	FetchSeries(ctx context.Context, symbol string, start time.Time) ([]dataset.Point, error)
}

// WithRetry runs fn up to cfg.MaxRetries times, sleeping
// cfg.RetryDelay between attempts. The last error is returned when
// every attempt fails; ctx cancellation stops the loop early.
func WithRetry(ctx context.Context, cfg Config, logger *zap.Logger, fn func() error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		logger.Warn("fetch attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", cfg.RetryDelay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	return err
}
