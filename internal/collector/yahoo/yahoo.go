// Package yahoo fetches daily closing prices from the Yahoo Finance
// chart API, used for both SPY and the ^VIX index.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/jackliao/marketmood/internal/collector"
	"github.com/jackliao/marketmood/internal/core"
	"github.com/jackliao/marketmood/internal/dataset"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// validSymbol matches tickers like SPY, AAPL and index symbols like ^VIX
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// Yahoo implements the Yahoo Finance collector
type Yahoo struct {
	client  *http.Client
	baseURL string
	cfg     collector.Config
	logger  *zap.Logger
}

// Option configures the collector
type Option func(*Yahoo)

// WithBaseURL overrides the chart API endpoint (tests)
func WithBaseURL(u string) Option {
	return func(y *Yahoo) { y.baseURL = u }
}

// WithConfig overrides the retry policy
func WithConfig(cfg collector.Config) Option {
	return func(y *Yahoo) { y.cfg = cfg }
}

// New creates a new Yahoo collector
func New(logger *zap.Logger, opts ...Option) *Yahoo {
	if logger == nil {
		logger = zap.NewNop()
	}
	y := &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
		cfg:     collector.Defaults(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// FetchSeries fetches daily closes from start to now
func (y *Yahoo) FetchSeries(ctx context.Context, symbol string, start time.Time) ([]dataset.Point, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}

	reqURL := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d",
		y.baseURL, url.PathEscape(symbol), start.Unix(), time.Now().Unix())

	var points []dataset.Point
	err := collector.WithRetry(ctx, y.cfg, y.logger, func() error {
		var err error
		points, err = y.fetch(ctx, reqURL, symbol)
		return err
	})
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}

	y.logger.Info("downloaded price series",
		zap.String("symbol", symbol),
		zap.Int("rows", len(points)),
	)
	return points, nil
}

func (y *Yahoo) fetch(ctx context.Context, reqURL, symbol string) ([]dataset.Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data for symbol: %s", symbol)
	}

	r := result.Chart.Result[0]
	closes := r.closes()
	if len(r.Timestamp) == 0 || len(closes) != len(r.Timestamp) {
		return nil, fmt.Errorf("malformed chart payload for %s", symbol)
	}

	points := make([]dataset.Point, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		v := math.NaN()
		if closes[i] != nil {
			v = *closes[i]
		}
		points = append(points, dataset.Point{
			Date:  core.Day(time.Unix(ts, 0).UTC()),
			Value: v,
		})
	}
	return points, nil
}

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// chartResponse mirrors the slice of the v8 chart payload we consume.
// Nullable closes show up for half-holidays; they become NaN points.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// closes prefers adjusted closes and falls back to raw quotes
func (r chartResult) closes() []*float64 {
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) > 0 {
		return r.Indicators.AdjClose[0].AdjClose
	}
	if len(r.Indicators.Quote) > 0 {
		return r.Indicators.Quote[0].Close
	}
	return nil
}
