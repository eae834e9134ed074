package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"interview-analysis/internal/domain"
	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/domain/ports/adapter"
	"interview-analysis/internal/domain/redact"
	"interview-analysis/internal/infra/logging"
	"interview-analysis/internal/infra/metrics"
	"interview-analysis/internal/infra/scheduler"
)

// Compile-time check
var _ AnalysisUseCase = (*analysisUC)(nil)

// AnalysisUseCase drives one analysis job at a time through
// submission, status polling, result fetch and cleanup.
type AnalysisUseCase interface {
	// Submit validates req, records it in the history and submits it. A
	// submission in flight is superseded: its timers are cancelled before the
	// new ones start and its late callbacks are discarded.
	Submit(ctx context.Context, req model.JobRequest) (model.JobHandle, error)
	// View returns the progressive display state of the current job.
	View() model.JobView
	// Wait blocks until the current job reaches a terminal state.
	Wait(ctx context.Context) (model.Outcome, error)
	// Shutdown cancels any active poller and clock. Safe to call repeatedly.
	Shutdown()
}

type AnalysisOptions struct {
	PollInterval time.Duration
	ClockTick    time.Duration
	// MaxConsecutiveErrors > 0 makes that many failed status checks in a row
	// fatal. Zero keeps status errors transient forever.
	MaxConsecutiveErrors int
	RedactField          string
	RedactKey            string
	Now                  func() time.Time
}

// jobRun is the state owned by one submission. Timer callbacks capture the
// run and its epoch; they are no-ops once the orchestrator epoch moves on.
type jobRun struct {
	epoch uint64
	id    string
	log   *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state     model.JobState
	handle    *model.JobHandle
	snapshot  *model.StatusSnapshot
	statusMsg string
	errStreak int
	fetching  bool

	startedAt    time.Time
	elapsed      time.Duration
	clockStopped bool

	poller *scheduler.Interval
	clock  *scheduler.Interval

	outcome *model.Outcome
	endErr  error
	closed  bool
	done    chan struct{}
}

type analysisUC struct {
	svc      adapter.AnalysisService
	history  HistoryUseCase
	notifier adapter.OutcomeNotifier
	opts     AnalysisOptions
	log      *zerolog.Logger

	mu    sync.Mutex
	epoch uint64
	run   *jobRun
}

// NewAnalysisUseCase wires the orchestrator. notifier may be nil.
func NewAnalysisUseCase(
	svc adapter.AnalysisService,
	history HistoryUseCase,
	notifier adapter.OutcomeNotifier,
	opts AnalysisOptions,
	logger *zerolog.Logger,
) *analysisUC {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.ClockTick <= 0 {
		opts.ClockTick = 100 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := logger.With().Str("component", "AnalysisUC").Logger()
	return &analysisUC{
		svc:      svc,
		history:  history,
		notifier: notifier,
		opts:     opts,
		log:      &l,
	}
}

func (o *analysisUC) Submit(ctx context.Context, req model.JobRequest) (model.JobHandle, error) {
	defer logging.TraceDuration(o.log, "AnalysisUC.Submit")()

	if err := req.Validate(); err != nil {
		o.mu.Lock()
		run := o.beginLocked(ctx)
		release := o.finishLocked(run, model.ValidationFailure(err), false)
		o.mu.Unlock()
		release()

		metrics.IncSubmission("invalid")
		run.log.Warn().Err(err).Msg("job request rejected")
		return model.JobHandle{}, err
	}

	if err := o.history.Record(ctx, req.VideoLocator); err != nil {
		o.log.Warn().Err(err).Msg("history entry not persisted")
	}

	o.mu.Lock()
	run := o.beginLocked(ctx)
	run.state = model.JobStateSubmitting
	run.statusMsg = "Submitting job"
	run.startedAt = o.opts.Now()
	run.clock = scheduler.NewInterval(o.opts.ClockTick, func(context.Context) { o.tick(run) })
	run.clock.Start(run.ctx)
	o.mu.Unlock()

	run.log.Info().Msg("submitting analysis job")
	handle, err := o.submitRemote(ctx, run, req)

	o.mu.Lock()
	if !o.currentLocked(run) {
		endErr := run.endErr
		o.mu.Unlock()
		metrics.IncStaleCallback()
		return model.JobHandle{}, endErr
	}
	if err != nil {
		notify := o.finishLocked(run, model.SubmissionFailure(err), true)
		o.mu.Unlock()

		metrics.IncSubmission("failed")
		run.log.Error().Err(err).Msg("job submission failed")
		notify()
		return model.JobHandle{}, err
	}

	run.handle = &handle
	run.state = model.JobStatePolling
	run.statusMsg = "Job submitted"
	run.ctx = logging.WithJobID(run.ctx, handle.ID)
	run.log = logging.With(run.ctx, o.log)
	jl := run.log
	run.poller = scheduler.NewInterval(o.opts.PollInterval, func(context.Context) { o.checkStatus(run) }, scheduler.Immediately())
	run.poller.Start(run.ctx)
	o.mu.Unlock()

	metrics.IncSubmission("accepted")
	jl.Info().Msg("job accepted, polling status")
	return handle, nil
}

// submitRemote calls the service with a context that ends when either the
// caller gives up or the run is superseded.
func (o *analysisUC) submitRemote(ctx context.Context, run *jobRun, req model.JobRequest) (model.JobHandle, error) {
	callCtx, cancel := context.WithCancel(run.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	handle, err := o.svc.SubmitJob(callCtx, req)
	if err != nil {
		return model.JobHandle{}, err
	}
	if strings.TrimSpace(handle.ID) == "" {
		return model.JobHandle{}, fmt.Errorf("%w: submission returned no job id", domain.ErrProtocol)
	}
	return handle, nil
}

func (o *analysisUC) checkStatus(run *jobRun) {
	o.mu.Lock()
	if !o.pollingLocked(run) {
		o.mu.Unlock()
		metrics.IncStaleCallback()
		return
	}
	jobID := run.handle.ID
	o.mu.Unlock()

	snap, err := o.svc.GetStatus(run.ctx, jobID)

	o.mu.Lock()
	if !o.pollingLocked(run) {
		o.mu.Unlock()
		metrics.IncStaleCallback()
		return
	}

	if err != nil {
		metrics.IncStatusCheck("error")
		run.errStreak++
		run.statusMsg = err.Error()
		run.log.Warn().Err(err).Int("consecutive", run.errStreak).Msg("status check failed")
		if limit := o.opts.MaxConsecutiveErrors; limit > 0 && run.errStreak >= limit {
			notify := o.finishLocked(run, model.PollingFailure(jobID, err), true)
			o.mu.Unlock()
			notify()
			return
		}
		o.mu.Unlock()
		return
	}

	metrics.IncStatusCheck("ok")
	run.errStreak = 0
	if snap.ID == "" {
		snap.ID = jobID
	}
	run.snapshot = &snap
	run.statusMsg = statusMessage(snap)
	if !snap.IsTerminal() {
		o.mu.Unlock()
		return
	}

	o.stopPollerLocked(run)
	if !snap.IsCompleted() {
		notify := o.finishLocked(run, model.ServerFailure(snap), true)
		o.mu.Unlock()
		run.log.Warn().Str("status", snap.State).Str("message", snap.Message).Msg("job failed remotely")
		notify()
		return
	}
	run.fetching = true
	o.mu.Unlock()

	outcome := o.fetchResult(run, jobID)

	o.mu.Lock()
	if !o.currentLocked(run) || run.closed {
		o.mu.Unlock()
		metrics.IncStaleCallback()
		return
	}
	notify := o.finishLocked(run, outcome, true)
	o.mu.Unlock()
	notify()
}

func (o *analysisUC) fetchResult(run *jobRun, jobID string) model.Outcome {
	raw, err := o.svc.GetResult(run.ctx, jobID)
	if err != nil {
		run.log.Error().Err(err).Msg("result fetch failed")
		return model.FetchFailure(jobID, err)
	}
	filtered, err := redact.Field(raw, o.opts.RedactField, o.opts.RedactKey)
	if err != nil {
		return model.FetchFailure(jobID, fmt.Errorf("%w: %v", domain.ErrProtocol, err))
	}
	run.log.Info().Int("bytes", len(filtered)).Msg("result fetched")
	return model.SuccessOutcome(filtered)
}

func (o *analysisUC) tick(run *jobRun) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.currentLocked(run) || run.clockStopped {
		metrics.IncStaleCallback()
		return
	}
	run.elapsed = o.opts.Now().Sub(run.startedAt)
}

func (o *analysisUC) View() model.JobView {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == nil {
		return model.JobView{State: model.JobStateIdle, Elapsed: model.FormatElapsed(0)}
	}
	return o.viewLocked(o.run)
}

func (o *analysisUC) Wait(ctx context.Context) (model.Outcome, error) {
	o.mu.Lock()
	run := o.run
	o.mu.Unlock()
	if run == nil {
		return model.Outcome{}, domain.ErrNoActiveJob
	}

	select {
	case <-run.done:
	case <-ctx.Done():
		return model.Outcome{}, ctx.Err()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if run.outcome != nil {
		return *run.outcome, nil
	}
	return model.Outcome{}, run.endErr
}

func (o *analysisUC) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run != nil {
		o.endLocked(o.run, domain.ErrJobCancelled)
	}
	o.epoch++
}

// ---- lifecycle helpers; all require o.mu ----

// beginLocked supersedes the current run and starts a new epoch.
// The run context keeps the caller's correlation values but not its
// cancellation: a job outlives the request that submitted it.
func (o *analysisUC) beginLocked(parent context.Context) *jobRun {
	if o.run != nil {
		o.endLocked(o.run, domain.ErrJobSuperseded)
	}
	o.epoch++

	id := ulid.Make().String()
	ctx, cancel := context.WithCancel(logging.WithSubmissionID(context.WithoutCancel(parent), id))
	run := &jobRun{
		epoch:  o.epoch,
		id:     id,
		log:    logging.With(ctx, o.log),
		ctx:    ctx,
		cancel: cancel,
		state:  model.JobStateIdle,
		done:   make(chan struct{}),
	}
	o.run = run
	return run
}

func (o *analysisUC) currentLocked(run *jobRun) bool {
	return run.epoch == o.epoch && !run.closed
}

func (o *analysisUC) pollingLocked(run *jobRun) bool {
	return o.currentLocked(run) && run.state == model.JobStatePolling && !run.fetching
}

func (o *analysisUC) stopPollerLocked(run *jobRun) {
	if run.poller != nil {
		run.poller.Stop()
		run.poller = nil
	}
}

// stopClockLocked freezes the elapsed time. Only the first call counts.
func (o *analysisUC) stopClockLocked(run *jobRun) {
	if run.clock != nil {
		run.clock.Stop()
		run.clock = nil
	}
	if run.clockStopped {
		return
	}
	run.clockStopped = true
	if !run.startedAt.IsZero() {
		run.elapsed = o.opts.Now().Sub(run.startedAt)
	}
}

// finishLocked moves run to its terminal state. The returned func delivers
// the outcome to the notifier, then releases waiters. It must be called
// without o.mu held.
func (o *analysisUC) finishLocked(run *jobRun, outcome model.Outcome, notify bool) func() {
	o.stopPollerLocked(run)
	o.stopClockLocked(run)
	run.cancel()

	run.outcome = &outcome
	if outcome.Succeeded() {
		run.state = model.JobStateSucceeded
		run.statusMsg = "Completed"
	} else {
		run.state = model.JobStateFailed
		if run.statusMsg == "" || run.snapshot == nil {
			run.statusMsg = outcome.Message
		}
	}
	run.closed = true

	status := ""
	if run.snapshot != nil {
		status = run.snapshot.State
	}
	metrics.ObserveOutcome(string(outcome.Kind), status, run.elapsed)
	run.log.Info().Err(outcome.Err).Str("state", string(run.state)).Str("elapsed", model.FormatElapsed(run.elapsed)).Msg("job finished")

	if !notify || o.notifier == nil {
		return func() { close(run.done) }
	}
	view := o.viewLocked(run)
	log := run.log
	return func() {
		defer close(run.done)
		if err := o.notifier.NotifyOutcome(context.Background(), view, outcome); err != nil {
			log.Error().Err(err).Msg("outcome notification failed")
		}
	}
}

// endLocked tears down a run that has not finished on its own.
func (o *analysisUC) endLocked(run *jobRun, reason error) {
	o.stopPollerLocked(run)
	o.stopClockLocked(run)
	run.cancel()
	if run.closed {
		return
	}
	run.endErr = reason
	run.state = model.JobStateIdle
	run.statusMsg = reason.Error()
	run.closed = true
	close(run.done)
	run.log.Info().Err(reason).Msg("job torn down")
}

func (o *analysisUC) viewLocked(run *jobRun) model.JobView {
	v := model.JobView{
		SubmissionID:  run.id,
		State:         run.state,
		StatusMessage: run.statusMsg,
		Elapsed:       model.FormatElapsed(run.elapsed),
		Outcome:       run.outcome,
	}
	if run.handle != nil {
		v.JobID = run.handle.ID
	}
	if run.snapshot != nil {
		snap := *run.snapshot
		v.Snapshot = &snap
	}
	return v
}

func statusMessage(s model.StatusSnapshot) string {
	if s.Message != "" {
		return fmt.Sprintf("Status: %s (%s)", s.State, s.Message)
	}
	return "Status: " + s.State
}
