package provider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// backoffBase is the first retry delay; each subsequent attempt doubles it.
const backoffBase = 250 * time.Millisecond

// backoffDelay returns the exponential backoff delay for a zero-based
// retry attempt.
func backoffDelay(attempt int) time.Duration {
	return backoffBase << attempt
}

// sleepWithContext waits for d or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryableStatus reports whether an HTTP status is a transient failure
// worth retrying. Client-class errors fail fast.
func retryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// transientError reports whether a transport error is worth retrying.
func transientError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
