package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST", Message: "something broke"}
	if !strings.Contains(err.Error(), "TEST") {
		t.Errorf("error string should contain code, got %q", err.Error())
	}

	wrapped := WrapError(err, fmt.Errorf("root cause"))
	if !strings.Contains(wrapped.Error(), "root cause") {
		t.Errorf("wrapped error should contain cause, got %q", wrapped.Error())
	}
}

func TestError_Is(t *testing.T) {
	wrapped := WrapError(ErrSeriesMisaligned, fmt.Errorf("length 5 vs 7"))

	if !errors.Is(wrapped, ErrSeriesMisaligned) {
		t.Error("wrapped error should match its base by code")
	}
	if errors.Is(wrapped, ErrConfigInvalid) {
		t.Error("errors with different codes should not match")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	wrapped := WrapError(ErrBadPrice, cause)

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}
