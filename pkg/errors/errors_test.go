package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorWrapsSentinel(t *testing.T) {
	err := Newf(ErrInvalidScenario, "line %d", 7)
	if !errors.Is(err, ErrInvalidScenario) {
		t.Error("errors.Is failed to match the sentinel")
	}
	if got := err.Error(); got != "invalid scenario definition: line 7" {
		t.Errorf("Error() = %q", got)
	}
	wrapped := fmt.Errorf("loading benchmark: %w", err)
	if !errors.Is(wrapped, ErrInvalidScenario) {
		t.Error("sentinel lost through further wrapping")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{New(ErrInvalidConfig, "x"), ExitConfig},
		{New(ErrUnknownNormalization, "x"), ExitConfig},
		{New(ErrUnknownFormat, "x"), ExitConfig},
		{New(ErrInvalidNgramSize, "x"), ExitConfig},
		{New(ErrDuplicateStatsKey, "x"), ExitScenario},
		{New(ErrInvalidScenario, "x"), ExitScenario},
		{New(ErrScanAborted, "x"), ExitFailure},
		{errors.New("anything else"), ExitFailure},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
