package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/jackliao/marketmood/internal/core"
)

const dateLayout = "2006-01-02"

// signalHeader is the column layout of the processed signals table
var signalHeader = []string{"date", "spy_price", "vix", "cnn_fg", "signal"}

// ReadSeries parses a two-column CSV (date,value) with a header row.
// Empty value cells become NaN.
func ReadSeries(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading series csv: %w", err)
	}
	if len(records) < 2 {
		return nil, core.ErrNoData
	}

	points := make([]Point, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		date, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q: %w", i+1, rec[0], err)
		}
		points = append(points, Point{Date: date, Value: parseCell(rec[1])})
	}
	return points, nil
}

// WriteSeries writes points as a two-column CSV with the given value
// column name. NaN values become empty cells.
func WriteSeries(w io.Writer, name string, points []Point) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", name}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{p.Date.Format(dateLayout), formatCell(p.Value)}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSignals writes the processed signal table
// (date,spy_price,vix,cnn_fg,signal), one row per aligned day.
func WriteSignals(w io.Writer, a *Aligned, signals []core.Signal) error {
	if a.Len() != len(signals) {
		return core.WrapError(core.ErrSeriesMisaligned,
			fmt.Errorf("%d rows vs %d signals", a.Len(), len(signals)))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(signalHeader); err != nil {
		return err
	}
	for i := range signals {
		row := []string{
			a.Prices[i].Date.Format(dateLayout),
			formatCell(a.Prices[i].Close),
			formatCell(a.Sentiment[i].VIX),
			formatCell(a.Sentiment[i].FearGreed),
			string(signals[i]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadSignals parses a processed signal table back into the aligned
// dataset and its signal series.
func ReadSignals(r io.Reader) (*Aligned, []core.Signal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(signalHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading signals csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil, core.ErrNoData
	}

	a := &Aligned{}
	signals := make([]core.Signal, 0, len(records)-1)
	for i, rec := range records[1:] {
		date, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: bad date %q: %w", i+1, rec[0], err)
		}
		sig := core.Signal(rec[4])
		if !sig.IsValid() {
			return nil, nil, fmt.Errorf("row %d: unknown signal %q", i+1, rec[4])
		}
		a.Prices = append(a.Prices, core.PriceRecord{Date: date, Close: parseCell(rec[1])})
		a.Sentiment = append(a.Sentiment, core.SentimentRecord{
			Date:      date,
			VIX:       parseCell(rec[2]),
			FearGreed: parseCell(rec[3]),
		})
		signals = append(signals, sig)
	}
	return a, signals, nil
}

func parseCell(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
