package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"interview-analysis/internal/config"
	"interview-analysis/internal/domain/ports/adapter"
	"interview-analysis/internal/domain/ports/repository"
	"interview-analysis/internal/infra/adapters/analysis"
	tele "interview-analysis/internal/infra/adapters/telegram"
	pg "interview-analysis/internal/infra/db/postgres"
	"interview-analysis/internal/infra/db/sqlite"
	"interview-analysis/internal/infra/kv"
	red "interview-analysis/internal/infra/redis"
	"interview-analysis/internal/infra/worker"
	"interview-analysis/internal/usecase"
)

// App composes the orchestrator, history and their infrastructure from
// config. Both binaries build one and Close it on exit.
type App struct {
	Analysis usecase.AnalysisUseCase
	History  usecase.HistoryUseCase
	// Redis is nil unless history or rate limiting uses it.
	Redis red.RedisClient

	pool    *worker.Pool
	closers []func() error
	log     *zerolog.Logger
}

// Options lets callers add notifier targets (such as a CLI printer) and
// swap the remote service in tests.
type Options struct {
	Notifiers []adapter.OutcomeNotifier
	Service   adapter.AnalysisService
}

func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, opts Options) (*App, error) {
	a := &App{log: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	if cfg.History.Backend == "redis" || cfg.Console.SubmitLimit > 0 {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Redis = rc
		a.closers = append(a.closers, rc.Close)
	}

	store, err := a.historyStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	history := usecase.NewHistoryUseCase(store, cfg.History.Key, cfg.History.MaxEntries, logger)
	if err := history.Load(ctx); err != nil {
		logger.Warn().Err(err).Str("backend", cfg.History.Backend).Msg("history not loaded, starting empty")
	}
	a.History = history

	svc := opts.Service
	if svc == nil {
		svc, err = analysis.NewHTTPClient(cfg.Service.BaseURL, cfg.Service.APIKey, cfg.Service.Timeout, logger)
		if err != nil {
			return nil, err
		}
	}

	targets := append([]adapter.OutcomeNotifier{}, opts.Notifiers...)
	if cfg.Notify.Telegram.Token != "" {
		tg, err := tele.NewNotifier(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID, cfg.Notify.Telegram.APIEndpoint, logger)
		if err != nil {
			return nil, err
		}
		targets = append(targets, tg)
	} else {
		targets = append(targets, tele.NewNoopNotifier(logger))
	}
	a.pool = worker.NewPool(cfg.Notify.Workers, logger)
	a.pool.Start(context.Background())
	notifier := worker.NewAsyncNotifier(a.pool, cfg.Service.Timeout, targets...)

	a.Analysis = usecase.NewAnalysisUseCase(svc, history, notifier, usecase.AnalysisOptions{
		PollInterval:         cfg.Poll.Interval,
		ClockTick:            cfg.Poll.ClockTick,
		MaxConsecutiveErrors: cfg.Poll.MaxConsecutiveErrors,
		RedactField:          cfg.Redaction.Field,
		RedactKey:            cfg.Redaction.Key,
	}, logger)

	ok = true
	return a, nil
}

func (a *App) historyStore(ctx context.Context, cfg *config.Config) (repository.KVStore, error) {
	switch cfg.History.Backend {
	case "redis":
		return red.NewKVStore(a.Redis), nil
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.History.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		s := pg.NewKVStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return kv.NewMemoryStore(), nil
	}
}

// Close cancels the current job, flushes pending notifications and releases
// backends in reverse order of creation.
func (a *App) Close() error {
	if a.Analysis != nil {
		a.Analysis.Shutdown()
	}
	if a.pool != nil {
		a.pool.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
