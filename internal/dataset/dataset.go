// Package dataset aligns the raw price and sentiment series into the
// single daily table the engines consume.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jackliao/marketmood/internal/core"
	"go.uber.org/zap"
)

// Point is one dated observation of a raw series
type Point struct {
	Date  time.Time
	Value float64
}

// Aligned is the inner join of the price, VIX and fear/greed series:
// one row per calendar day present in all three, sorted by date, with
// the sentiment and price slices index-aligned 1:1.
type Aligned struct {
	Sentiment []core.SentimentRecord
	Prices    []core.PriceRecord
}

// Len returns the number of aligned days
func (a *Aligned) Len() int {
	return len(a.Prices)
}

// maxGapDays is the widest date gap tolerated without a warning
const maxGapDays = 5

// Merge inner-joins the three raw series by calendar day. Days missing
// from any series are dropped rather than shifted, so the output can
// never be silently misaligned. Individual NaN readings survive the
// join; the signal engine degrades those days to HOLD.
func Merge(prices, vix, fearGreed []Point, logger *zap.Logger) (*Aligned, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	vixByDay := byDay(vix)
	fgByDay := byDay(fearGreed)

	rows := make(map[time.Time][3]float64)
	for _, p := range prices {
		d := core.Day(p.Date)
		v, okV := vixByDay[d]
		fg, okFG := fgByDay[d]
		if !okV || !okFG {
			continue
		}
		rows[d] = [3]float64{p.Value, v, fg}
	}
	if len(rows) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("price, VIX and fear/greed series share no dates"))
	}

	days := make([]time.Time, 0, len(rows))
	for d := range rows {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := &Aligned{
		Sentiment: make([]core.SentimentRecord, 0, len(days)),
		Prices:    make([]core.PriceRecord, 0, len(days)),
	}
	for i, d := range days {
		row := rows[d]
		out.Prices = append(out.Prices, core.PriceRecord{Date: d, Close: row[0]})
		out.Sentiment = append(out.Sentiment, core.SentimentRecord{Date: d, VIX: row[1], FearGreed: row[2]})

		if i > 0 {
			if gap := int(d.Sub(days[i-1]).Hours() / 24); gap > maxGapDays {
				logger.Warn("large date gap in merged series",
					zap.Time("from", days[i-1]),
					zap.Time("to", d),
					zap.Int("days", gap),
				)
			}
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}

	logger.Info("series merged",
		zap.Int("rows", out.Len()),
		zap.Time("first", days[0]),
		zap.Time("last", days[len(days)-1]),
	)
	return out, nil
}

// Validate checks the merged table for values that would corrupt a
// backtest: non-positive or non-finite closes, negative VIX, and
// fear/greed readings outside [0, 100]. NaN sentiment readings are
// legal gaps, not errors.
func (a *Aligned) Validate() error {
	if a.Len() == 0 {
		return core.ErrNoData
	}
	if len(a.Sentiment) != len(a.Prices) {
		return core.WrapError(core.ErrSeriesMisaligned,
			fmt.Errorf("%d sentiment rows vs %d price rows", len(a.Sentiment), len(a.Prices)))
	}

	for i := range a.Prices {
		p, s := a.Prices[i], a.Sentiment[i]
		if !p.Date.Equal(s.Date) {
			return core.WrapError(core.ErrSeriesMisaligned,
				fmt.Errorf("row %d: price date %s vs sentiment date %s",
					i, p.Date.Format("2006-01-02"), s.Date.Format("2006-01-02")))
		}
		if !p.IsValid() {
			return core.WrapError(core.ErrBadPrice,
				fmt.Errorf("row %d (%s): close %v", i, p.Date.Format("2006-01-02"), p.Close))
		}
		if !math.IsNaN(s.VIX) && s.VIX < 0 {
			return core.WrapError(core.ErrBadPrice,
				fmt.Errorf("row %d (%s): negative VIX %v", i, s.Date.Format("2006-01-02"), s.VIX))
		}
		if !math.IsNaN(s.FearGreed) && (s.FearGreed < 0 || s.FearGreed > 100) {
			return core.WrapError(core.ErrBadPrice,
				fmt.Errorf("row %d (%s): fear/greed %v outside [0, 100]",
					i, s.Date.Format("2006-01-02"), s.FearGreed))
		}
	}
	return nil
}

func byDay(points []Point) map[time.Time]float64 {
	m := make(map[time.Time]float64, len(points))
	for _, p := range points {
		m[core.Day(p.Date)] = p.Value
	}
	return m
}
