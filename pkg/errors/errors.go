// Package errors defines the sentinel errors shared across the overlap
// detection platform and maps them to process exit codes for the CLI
// binaries.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrUnknownNormalization = errors.New("unknown normalization mode")
	ErrUnknownFormat        = errors.New("unknown corpus format")
	ErrDuplicateStatsKey    = errors.New("duplicate overlap stats key")
	ErrInvalidScenario      = errors.New("invalid scenario definition")
	ErrInvalidNgramSize     = errors.New("invalid ngram size")
	ErrScanAborted          = errors.New("scan aborted")
	ErrStoreUnavailable     = errors.New("results store unavailable")
	ErrTimeout              = errors.New("operation timed out")
	ErrInternal             = errors.New("internal error")
)

// AppError pairs a sentinel with human-readable context so callers can both
// branch on errors.Is and surface a useful message.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Exit codes returned by the overlap CLI binaries.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitScenario = 3
)

// ExitCode maps an error to a process exit code. Configuration and scenario
// definition problems get dedicated codes so wrapper scripts can tell user
// error from infrastructure failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnknownNormalization),
		errors.Is(err, ErrUnknownFormat),
		errors.Is(err, ErrInvalidNgramSize):
		return ExitConfig
	case errors.Is(err, ErrDuplicateStatsKey),
		errors.Is(err, ErrInvalidScenario):
		return ExitScenario
	default:
		return ExitFailure
	}
}
