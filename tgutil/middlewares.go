package tgutil

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gotd/td/telegram"
	"github.com/iyear/tdl/core/middlewares/recovery"
	"github.com/iyear/tdl/core/middlewares/retry"
)

const (
	retryAttempts   = 4
	recoveryTimeout = 5 * time.Minute
)

// DefaultMiddlewares is shared by the main client and the upload DC pools. Recovery
// stops retrying once ctx is done.
func DefaultMiddlewares(ctx context.Context) []telegram.Middleware {
	return []telegram.Middleware{
		retry.New(retryAttempts),
		recovery.New(ctx, NewBackoff(recoveryTimeout)),
	}
}

func NewBackoff(timeout time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.Multiplier = 1.1
	b.MaxElapsedTime = timeout
	b.MaxInterval = 10 * time.Second
	return b
}
