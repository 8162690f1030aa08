package dataset

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackliao/marketmood/internal/core"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func points(pairs ...float64) []Point {
	// pairs is (dayOffset, value)...
	out := make([]Point, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Point{Date: day(int(pairs[i])), Value: pairs[i+1]})
	}
	return out
}

func TestMerge_InnerJoin(t *testing.T) {
	prices := points(0, 400, 1, 402, 2, 398, 3, 405)
	vix := points(0, 18, 2, 31, 3, 29) // day 1 missing
	fg := points(0, 55, 1, 40, 2, 15, 3, 20)

	a, err := Merge(prices, vix, fg, nil)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	// Day 1 dropped: present in prices and fg but not vix
	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
	for i := range a.Prices {
		if !a.Prices[i].Date.Equal(a.Sentiment[i].Date) {
			t.Errorf("row %d: price/sentiment dates differ", i)
		}
	}
	if a.Prices[1].Close != 398 || a.Sentiment[1].VIX != 31 {
		t.Errorf("row 1 = close %v vix %v, want 398/31", a.Prices[1].Close, a.Sentiment[1].VIX)
	}
}

func TestMerge_SortsByDate(t *testing.T) {
	prices := points(2, 398, 0, 400, 1, 402)
	vix := points(1, 20, 0, 18, 2, 31)
	fg := points(0, 55, 2, 15, 1, 40)

	a, err := Merge(prices, vix, fg, nil)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	for i := 1; i < a.Len(); i++ {
		if !a.Prices[i].Date.After(a.Prices[i-1].Date) {
			t.Fatalf("dates not strictly increasing at row %d", i)
		}
	}
}

func TestMerge_NoOverlap(t *testing.T) {
	prices := points(0, 400)
	vix := points(1, 18)
	fg := points(2, 55)

	_, err := Merge(prices, vix, fg, nil)
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestMerge_KeepsNaNReadings(t *testing.T) {
	prices := points(0, 400, 1, 402)
	vix := []Point{{Date: day(0), Value: 18}, {Date: day(1), Value: math.NaN()}}
	fg := points(0, 55, 1, 40)

	a, err := Merge(prices, vix, fg, nil)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if !math.IsNaN(a.Sentiment[1].VIX) {
		t.Errorf("NaN VIX reading should survive the join, got %v", a.Sentiment[1].VIX)
	}
}

func TestMerge_RejectsBadValues(t *testing.T) {
	fg := points(0, 55)
	vix := points(0, 18)

	t.Run("non-positive close", func(t *testing.T) {
		_, err := Merge(points(0, -400), vix, fg, nil)
		if !errors.Is(err, core.ErrBadPrice) {
			t.Errorf("expected ErrBadPrice, got %v", err)
		}
	})

	t.Run("negative vix", func(t *testing.T) {
		_, err := Merge(points(0, 400), points(0, -3), fg, nil)
		if !errors.Is(err, core.ErrBadPrice) {
			t.Errorf("expected ErrBadPrice, got %v", err)
		}
	})

	t.Run("fear greed out of range", func(t *testing.T) {
		_, err := Merge(points(0, 400), vix, points(0, 130), nil)
		if !errors.Is(err, core.ErrBadPrice) {
			t.Errorf("expected ErrBadPrice, got %v", err)
		}
	})
}

func TestAligned_Validate_Misalignment(t *testing.T) {
	a := &Aligned{
		Prices:    []core.PriceRecord{{Date: day(0), Close: 400}},
		Sentiment: []core.SentimentRecord{{Date: day(1), VIX: 18, FearGreed: 50}},
	}

	if err := a.Validate(); !errors.Is(err, core.ErrSeriesMisaligned) {
		t.Errorf("expected ErrSeriesMisaligned, got %v", err)
	}

	a.Sentiment = nil
	if err := a.Validate(); err == nil {
		t.Error("unequal lengths should fail validation")
	}
}
