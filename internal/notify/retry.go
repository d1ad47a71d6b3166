package notify

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/dearbaby/internal/constants"
	"github.com/julianstephens/dearbaby/internal/logger"
)

// ErrUnavailable marks a delivery backend that is not there at all. Retrying gives
// up on it immediately.
var ErrUnavailable = errors.New("delivery backend unavailable")

// Retrying retries a Deliverer a bounded number of times. It runs on the goroutine
// that fires the alert, never under a caller's lock.
type Retrying struct {
	next       Deliverer
	maxRetries int
	delay      time.Duration
}

// NewRetrying wraps next. Non-positive values fall back to the package defaults.
func NewRetrying(next Deliverer, maxRetries int, delay time.Duration) *Retrying {
	if maxRetries <= 0 {
		maxRetries = constants.NotifyMaxRetries
	}
	if delay <= 0 {
		delay = constants.NotifyRetryDelay
	}
	return &Retrying{next: next, maxRetries: maxRetries, delay: delay}
}

func (r *Retrying) Deliver(ctx context.Context, req Request) error {
	var err error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		if err = r.next.Deliver(ctx, req); err == nil || errors.Is(err, ErrUnavailable) {
			return err
		}
		logger.Debug("Notification delivery failed", "id", req.ID, "attempt", attempt, "error", err)
		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay):
		}
	}
	return err
}
