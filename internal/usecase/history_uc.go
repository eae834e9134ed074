package usecase

import (
	"context"
	"strings"
	"sync"

	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/domain/ports/repository"
	"interview-analysis/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ HistoryUseCase = (*historyUC)(nil)

// HistoryUseCase is a bounded, deduplicated, most-recently-used list of
// previously submitted inputs.
type HistoryUseCase interface {
	// Load reads the persisted record once. Absent or unreadable records
	// leave the history empty.
	Load(ctx context.Context) error
	Record(ctx context.Context, value string) error
	List() []string
	Clear(ctx context.Context) error
}

type historyUC struct {
	store repository.KVStore
	key   string
	max   int
	log   *zerolog.Logger

	mu      sync.Mutex
	entries []string
}

func NewHistoryUseCase(store repository.KVStore, key string, maxEntries int, logger *zerolog.Logger) *historyUC {
	if maxEntries <= 0 {
		maxEntries = 10
	}
	l := logger.With().Str("component", "HistoryUC").Logger()
	return &historyUC{
		store:   store,
		key:     key,
		max:     maxEntries,
		log:     &l,
		entries: []string{},
	}
}

func (h *historyUC) Load(ctx context.Context) error {
	raw, ok, err := h.store.Get(ctx, h.key)
	if err != nil {
		metrics.IncHistoryStoreError("load")
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = []string{}
	if !ok {
		metrics.SetHistorySize(0)
		return nil
	}

	rec, err := model.DecodeHistoryRecord(raw)
	if err != nil {
		h.log.Warn().Err(err).Str("key", h.key).Msg("discarding unreadable history record")
		metrics.SetHistorySize(0)
		return nil
	}
	if rec.Version < model.HistoryRecordVersion {
		h.log.Info().Int("version", rec.Version).Msg("migrating history record on next write")
	}
	h.entries = sanitize(rec.Entries, h.max)
	metrics.SetHistorySize(len(h.entries))
	return nil
}

// Record moves value to the front, evicting from the tail past the cap, and
// persists the full list. The in-memory list is updated even if persisting
// fails. The lock is held across the write so stores see writes in order.
func (h *historyUC) Record(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	next := make([]string, 0, len(h.entries)+1)
	next = append(next, value)
	for _, e := range h.entries {
		if e != value {
			next = append(next, e)
		}
	}
	if len(next) > h.max {
		next = next[:h.max]
	}
	h.entries = next

	metrics.SetHistorySize(len(next))
	return h.persist(ctx, next)
}

func (h *historyUC) List() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string{}, h.entries...)
}

func (h *historyUC) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = []string{}

	metrics.SetHistorySize(0)
	if err := h.store.Remove(ctx, h.key); err != nil {
		metrics.IncHistoryStoreError("remove")
		return err
	}
	return nil
}

func (h *historyUC) persist(ctx context.Context, entries []string) error {
	raw, err := model.HistoryRecord{Entries: entries}.Encode()
	if err != nil {
		return err
	}
	if err := h.store.Set(ctx, h.key, raw); err != nil {
		metrics.IncHistoryStoreError("save")
		h.log.Error().Err(err).Str("key", h.key).Msg("failed to persist history")
		return err
	}
	return nil
}

// sanitize drops blanks and duplicates from a stored list, keeping the first
// (most recent) occurrence, and applies the cap.
func sanitize(in []string, max int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}
