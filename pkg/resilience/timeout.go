package resilience

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// WithTimeout runs fn under a deadline. When the deadline passes first it
// returns an ErrTimeout without waiting for fn; fn must honour its context.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- fn(timeoutCtx)
	}()
	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.Newf(apperrors.ErrTimeout, http.StatusServiceUnavailable, "%s exceeded %v", name, timeout)
	}
}
