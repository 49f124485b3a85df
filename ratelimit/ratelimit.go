package ratelimit

import (
	"context"

	"golang.org/x/sync/semaphore"
)

const DefaultDownloadConcurrency = 4

// Limiter bounds the number of simultaneously running operations.
type Limiter struct {
	sem *semaphore.Weighted
}

func New(n int) *Limiter {
	if n <= 0 {
		n = DefaultDownloadConcurrency
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until a slot is free or ctx is done. The returned release must be
// called exactly once.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.sem.Acquire(ctx, 1); nil != err {
		return nil, err
	}
	return func() { l.sem.Release(1) }, nil
}
