package worker

import (
	"context"
	"errors"
	"time"

	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/domain/ports/adapter"
)

var _ adapter.OutcomeNotifier = (*AsyncNotifier)(nil)

// AsyncNotifier hands each outcome to every target on the pool so slow
// targets never hold up the orchestrator.
type AsyncNotifier struct {
	pool    *Pool
	targets []adapter.OutcomeNotifier
	timeout time.Duration
}

func NewAsyncNotifier(pool *Pool, timeout time.Duration, targets ...adapter.OutcomeNotifier) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AsyncNotifier{pool: pool, targets: targets, timeout: timeout}
}

// NotifyOutcome only enqueues. The returned error reports tasks that could
// not be queued.
func (a *AsyncNotifier) NotifyOutcome(ctx context.Context, view model.JobView, outcome model.Outcome) error {
	var errs []error
	for _, target := range a.targets {
		target := target
		err := a.pool.Submit(func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			return target.NotifyOutcome(ctx, view, outcome)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
