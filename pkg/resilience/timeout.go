package resilience

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout calls fn on the calling goroutine with a context that expires
// after timeout. fn has finished, and its side effects are visible, by the
// time WithTimeout returns; callers that serialize store writes rely on
// this. The bound only holds for functions that honour ctx.
//
// An error returned after the deadline is wrapped with the operation name
// and context.DeadlineExceeded. A nil error is returned as is, even when fn
// overran.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(timeoutCtx)
	if err == nil || timeoutCtx.Err() == nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
	}
	return fmt.Errorf("%s: %w (limit: %v): %v", name, context.DeadlineExceeded, timeout, err)
}
