package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/domain/ports/adapter"
)

var _ adapter.OutcomeNotifier = (*NoopNotifier)(nil)

// NoopNotifier logs outcomes instead of sending them. Used when no bot token
// is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	l := logger.With().Str("component", "NoopNotifier").Logger()
	return &NoopNotifier{log: &l}
}

func (n *NoopNotifier) NotifyOutcome(ctx context.Context, view model.JobView, outcome model.Outcome) error {
	n.log.Debug().
		Str("job_id", view.JobID).
		Str("kind", string(outcome.Kind)).
		Str("elapsed", view.Elapsed).
		Msg("[noop-telegram] outcome")
	return nil
}
