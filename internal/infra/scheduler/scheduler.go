package scheduler

import (
	"context"
	"sync"
	"time"
)

// Interval runs fn every period on its own goroutine until stopped.
// Runs never overlap: a slow fn delays the next run instead of racing it.
type Interval struct {
	period    time.Duration
	immediate bool
	fn        func(ctx context.Context)

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

type Option func(*Interval)

// Immediately makes the first run happen on Start instead of after one period.
func Immediately() Option {
	return func(i *Interval) { i.immediate = true }
}

// NewInterval constructs an interval. If period <= 0 it defaults to 1 second.
func NewInterval(period time.Duration, fn func(ctx context.Context), opts ...Option) *Interval {
	if period <= 0 {
		period = time.Second
	}
	i := &Interval{
		period: period,
		fn:     fn,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Start begins the loop in a background goroutine.
// Calling Start more than once, or after Stop, has no effect.
func (i *Interval) Start(parent context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ctx != nil || i.stopped {
		return
	}
	i.ctx, i.cancel = context.WithCancel(parent)
	go i.loop(i.ctx)
}

func (i *Interval) loop(ctx context.Context) {
	defer close(i.done)

	if i.immediate {
		i.fn(ctx)
	}

	ticker := time.NewTicker(i.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A stop may race with a tick that is already pending.
			if ctx.Err() != nil {
				return
			}
			i.fn(ctx)
		}
	}
}

// Stop cancels the loop without waiting for it, so fn may call Stop on its
// own interval. It is idempotent and safe on an interval never started.
func (i *Interval) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stopped {
		return
	}
	i.stopped = true
	if i.cancel != nil {
		i.cancel()
		return
	}
	// no loop will ever close it
	close(i.done)
}

// Done is closed once the loop goroutine has returned, or by Stop when the
// interval never started.
func (i *Interval) Done() <-chan struct{} { return i.done }

// Active reports whether the interval was started and not yet stopped.
func (i *Interval) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ctx != nil && i.ctx.Err() == nil
}
