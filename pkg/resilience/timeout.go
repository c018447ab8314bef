package resilience

import (
	"context"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

// WithTimeout runs fn with a derived deadline and maps a deadline hit to the
// platform's ErrTimeout sentinel.
func WithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	err := fn(ctx)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return apperrors.Newf(apperrors.ErrTimeout, "deadline of %s exceeded", d)
	}
	return err
}
