package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jackliao/marketmood/internal/config"
	"github.com/jackliao/marketmood/internal/metrics"
)

func TestEmitMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.RecordFetch("yahoo", "ok", 0.1, 42)
	reg.RecordBacktest("ok", 0.01)
	reg.RecordJournalWrite()

	var buf bytes.Buffer
	if err := emitMetrics(&buf, reg); err != nil {
		t.Fatalf("emitMetrics failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`marketmood_fetches_total{source="yahoo",status="ok"} 1`,
		`marketmood_series_points{source="yahoo"} 42`,
		`marketmood_backtests_total{status="ok"} 1`,
		"marketmood_journal_writes_total 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics dump missing %q", want)
		}
	}
}

func TestNewRegistry_FollowsConfig(t *testing.T) {
	cfg := config.Defaults()

	cfg.Metrics.Enabled = false
	if newRegistry(cfg) != nil {
		t.Error("disabled metrics should yield a nil registry")
	}

	cfg.Metrics.Enabled = true
	if newRegistry(cfg) == nil {
		t.Error("enabled metrics should yield a registry")
	}
}
