package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrOracleUnavailable, "oracle_unavailable"},
		{fmt.Errorf("fetch signal: %w", ErrOracleUnavailable), "oracle_unavailable"},
		{fmt.Errorf("decode: %w", ErrOracleMalformed), "oracle_malformed_response"},
		{fmt.Errorf("aqi: %w", ErrValidationFailed), "validation_failed"},
		{ErrRunInProgress, "concurrent_run_in_progress"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := ErrOracleMalformed
	err := NewAppError("oracle.getSignal", "bad payload", inner)
	if !errors.Is(err, ErrOracleMalformed) {
		t.Fatalf("expected wrapped sentinel to be recoverable")
	}
	if err.Error() == "" {
		t.Fatalf("expected formatted message")
	}
}
