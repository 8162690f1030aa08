package collector

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestWithRetry_SucceedsEventually(t *testing.T) {
	cfg := Config{MaxRetries: 3, RetryDelay: time.Millisecond}

	var calls int
	err := WithRetry(context.Background(), cfg, nil, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithRetry returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxRetries: 2, RetryDelay: time.Millisecond}

	var calls int
	err := WithRetry(context.Background(), cfg, nil, func() error {
		calls++
		return fmt.Errorf("always failing")
	})

	if err == nil {
		t.Fatal("expected the last error to be returned")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	cfg := Config{MaxRetries: 5, RetryDelay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, cfg, nil, func() error {
		return fmt.Errorf("fail once, then wait")
	})

	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWithRetry_ZeroRetriesStillRunsOnce(t *testing.T) {
	var calls int
	err := WithRetry(context.Background(), Config{}, nil, func() error {
		calls++
		return nil
	})

	if err != nil || calls != 1 {
		t.Errorf("calls = %d err = %v, want one successful call", calls, err)
	}
}
