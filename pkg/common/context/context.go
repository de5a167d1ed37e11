// Package context carries small helpers over the standard context package
// used by goshell's background runners.
package context

import (
	"context"
	"time"
)

// WithTimeoutOrCancel creates a context that ends when the parent is canceled
// or when the timeout elapses, whichever comes first.
func WithTimeoutOrCancel(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// IsCanceled reports whether the context has ended, for any reason.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut reports whether the context ended because its deadline passed,
// as opposed to an explicit cancel.
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}
