package waitqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Options tune how many sends are allowed per interval and how far apart consecutive
// sends are spaced.
type Options struct {
	IntervalCap int32
	Interval    time.Duration
	Spacing     time.Duration
}

var DefaultOptions = Options{
	IntervalCap: 20,
	Interval:    66 * time.Second,
	Spacing:     time.Second,
}

// WaitQueue throttles outgoing uploads so that a burst of download requests does not
// trip the chat server's flood limits.
type WaitQueue struct {
	opts            Options
	timer           *time.Timer
	intervalTicker  *time.Ticker
	intervalCounter atomic.Int32
	sendLock        *sync.Mutex
	cancelTicker    context.CancelFunc
	done            chan struct{}
}

func New(ctx context.Context, opts Options) *WaitQueue {
	if opts.IntervalCap <= 0 {
		opts.IntervalCap = DefaultOptions.IntervalCap
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions.Interval
	}

	ctx, cancel := context.WithCancel(ctx)
	wq := &WaitQueue{
		opts:            opts,
		timer:           time.NewTimer(0),
		done:            make(chan struct{}),
		intervalTicker:  time.NewTicker(opts.Interval),
		intervalCounter: atomic.Int32{},
		sendLock:        &sync.Mutex{},
		cancelTicker:    cancel,
	}

	go wq.runTicker(ctx)
	return wq
}

func (w *WaitQueue) runTicker(ctx context.Context) {
	defer func() { w.done <- struct{}{} }()
	defer w.intervalTicker.Stop()
	for {
		select {
		case <-w.intervalTicker.C:
			w.intervalCounter.Store(0)
		case <-ctx.Done():
			return
		}
	}
}

func (w *WaitQueue) Close() {
	w.cancelTicker()
	<-w.done
}

func (w *WaitQueue) Send(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.timer.C:
	}
	defer w.timer.Reset(w.opts.Spacing)

	for {
		if err := w.trySend(fn); nil != err {
			if errors.Is(err, errIntervalCapReached) {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(100 * time.Millisecond):
				}
				continue
			}
			return err
		}
		return nil
	}
}

var errIntervalCapReached = errors.New("wait queue interval capacity has reached, waiting for next interval")

func (w *WaitQueue) trySend(fn func() error) error {
	w.sendLock.Lock()
	defer w.sendLock.Unlock()

	if w.intervalCounter.Load() < w.opts.IntervalCap {
		if err := fn(); nil != err {
			return err
		}
		w.intervalCounter.Add(1)
		return nil
	}
	return errIntervalCapReached
}
