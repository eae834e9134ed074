package adapter

import (
	"context"

	"interview-analysis/internal/domain/model"
)

// OutcomeNotifier receives the final outcome of a job, once per job.
type OutcomeNotifier interface {
	NotifyOutcome(ctx context.Context, view model.JobView, outcome model.Outcome) error
}
