package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xeptore/tgsd/cache"
)

func TestStoreFetch(t *testing.T) {
	t.Parallel()

	s := cache.NewStore[string](10, time.Hour)
	t.Cleanup(s.Stop)

	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Fetch(context.Background(), "k", fetch)
			require.NoError(t, err)
			require.Equal(t, "value", v)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, calls.Load())

	v, err := s.Fetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, "value", v)
	require.EqualValues(t, 1, calls.Load())
}

func TestStoreFetchError(t *testing.T) {
	t.Parallel()

	s := cache.NewStore[int](10, time.Hour)
	t.Cleanup(s.Stop)

	errFetch := errors.New("fetch failed")
	_, err := s.Fetch(context.Background(), "k", func(context.Context) (int, error) { return 0, errFetch })
	require.ErrorIs(t, err, errFetch)

	v, err := s.Fetch(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, v)

	s.Delete("k")
	v, err = s.Fetch(context.Background(), "k", func(context.Context) (int, error) { return 8, nil })
	require.NoError(t, err)
	require.Equal(t, 8, v)
}

func TestStoreFetchRequesterCanceled(t *testing.T) {
	t.Parallel()

	s := cache.NewStore[string](10, time.Hour)
	t.Cleanup(s.Stop)

	started := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		close(started)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(200 * time.Millisecond):
			return "album", nil
		}
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Fetch(firstCtx, "al1", fetch)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   string
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := s.Fetch(context.Background(), "al1", fetch)
		second <- result{v, err}
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-firstErr, context.Canceled)
	res := <-second
	require.NoError(t, res.err)
	require.Equal(t, "album", res.v)
	require.EqualValues(t, 1, calls.Load())
}

func TestStoreFetchOwnContextDone(t *testing.T) {
	t.Parallel()

	s := cache.NewStore[int](10, time.Hour)
	t.Cleanup(s.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Fetch(ctx, "k", func(context.Context) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
