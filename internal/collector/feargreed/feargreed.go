// Package feargreed fetches the daily Fear & Greed index. The
// Alternative.me endpoint carries the long history and is tried
// first; the CNN graphdata endpoint is the fallback.
package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/jackliao/marketmood/internal/collector"
	"github.com/jackliao/marketmood/internal/core"
	"github.com/jackliao/marketmood/internal/dataset"
	"go.uber.org/zap"
)

const (
	defaultAlternativeURL = "https://api.alternative.me/fng/?limit=0&format=json&date_format=world"
	defaultCNNURL         = "https://production.dataviz.cnn.io/index/fearandgreed/graphdata"

	// Symbol is the series name the collector answers to
	Symbol = "FGI"
)

// FearGreed implements the Fear & Greed index collector
type FearGreed struct {
	client         *http.Client
	alternativeURL string
	cnnURL         string
	cfg            collector.Config
	logger         *zap.Logger
}

// Option configures the collector
type Option func(*FearGreed)

// WithAlternativeURL overrides the Alternative.me endpoint (tests)
func WithAlternativeURL(u string) Option {
	return func(f *FearGreed) { f.alternativeURL = u }
}

// WithCNNURL overrides the CNN endpoint (tests)
func WithCNNURL(u string) Option {
	return func(f *FearGreed) { f.cnnURL = u }
}

// WithConfig overrides the retry policy
func WithConfig(cfg collector.Config) Option {
	return func(f *FearGreed) { f.cfg = cfg }
}

// New creates a new Fear & Greed collector
func New(logger *zap.Logger, opts ...Option) *FearGreed {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &FearGreed{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		alternativeURL: defaultAlternativeURL,
		cnnURL:         defaultCNNURL,
		cfg:            collector.Defaults(),
		logger:         logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FearGreed) Name() string {
	return "feargreed"
}

// FetchSeries returns the daily index history from start onward. The
// symbol argument is accepted for interface parity and ignored.
func (f *FearGreed) FetchSeries(ctx context.Context, _ string, start time.Time) ([]dataset.Point, error) {
	var points []dataset.Point

	err := collector.WithRetry(ctx, f.cfg, f.logger, func() error {
		var err error
		points, err = f.fetchAlternative(ctx)
		return err
	})
	if err != nil {
		f.logger.Warn("alternative.me fetch failed, falling back to CNN", zap.Error(err))
		err = collector.WithRetry(ctx, f.cfg, f.logger, func() error {
			var ferr error
			points, ferr = f.fetchCNN(ctx)
			return ferr
		})
		if err != nil {
			return nil, core.WrapError(core.ErrCollectorFailed, err)
		}
	}

	points = trimBefore(points, core.Day(start))
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	f.logger.Info("downloaded fear/greed series", zap.Int("rows", len(points)))
	return points, nil
}

// alternativeResponse mirrors api.alternative.me/fng with
// date_format=world, i.e. DD-MM-YYYY timestamps.
type alternativeResponse struct {
	Data []struct {
		Value     string `json:"value"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
}

func (f *FearGreed) fetchAlternative(ctx context.Context) ([]dataset.Point, error) {
	var result alternativeResponse
	if err := f.getJSON(ctx, f.alternativeURL, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no data field in alternative.me response")
	}

	points := make([]dataset.Point, 0, len(result.Data))
	for _, item := range result.Data {
		date, err := parseWorldDate(item.Timestamp)
		if err != nil {
			f.logger.Warn("skipping invalid date entry", zap.String("timestamp", item.Timestamp))
			continue
		}
		value, err := strconv.ParseFloat(item.Value, 64)
		if err != nil {
			f.logger.Warn("skipping invalid value entry", zap.String("value", item.Value))
			continue
		}
		points = append(points, dataset.Point{Date: date, Value: value})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no valid data records in alternative.me response")
	}
	return points, nil
}

// cnnResponse mirrors the slice of the CNN graphdata payload we use
type cnnResponse struct {
	Historical struct {
		Data []struct {
			X int64   `json:"x"` // epoch millis
			Y float64 `json:"y"`
		} `json:"data"`
	} `json:"fear_and_greed_historical"`
}

func (f *FearGreed) fetchCNN(ctx context.Context) ([]dataset.Point, error) {
	var result cnnResponse
	if err := f.getJSON(ctx, f.cnnURL, &result); err != nil {
		return nil, err
	}
	if len(result.Historical.Data) == 0 {
		return nil, fmt.Errorf("no historical data in CNN response")
	}

	points := make([]dataset.Point, 0, len(result.Historical.Data))
	for _, item := range result.Historical.Data {
		points = append(points, dataset.Point{
			Date:  core.Day(time.UnixMilli(item.X).UTC()),
			Value: item.Y,
		})
	}
	return points, nil
}

func (f *FearGreed) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching fear/greed index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// parseWorldDate parses the DD-MM-YYYY format of date_format=world
func parseWorldDate(s string) (time.Time, error) {
	t, err := time.Parse("02-01-2006", s)
	if err != nil {
		return time.Time{}, err
	}
	return core.Day(t), nil
}

func trimBefore(points []dataset.Point, start time.Time) []dataset.Point {
	out := points[:0]
	for _, p := range points {
		if !p.Date.Before(start) {
			out = append(out, p)
		}
	}
	return out
}
