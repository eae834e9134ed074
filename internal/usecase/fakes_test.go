package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"interview-analysis/internal/domain/model"
)

// ---- KV store ----

type memKV struct {
	mu      sync.Mutex
	data    map[string]string
	sets    int
	removes int
	setErr  error
	getErr  error
}

func newMemKV() *memKV { return &memKV{data: map[string]string{}} }

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
	delete(m.data, key)
	return nil
}

func (m *memKV) raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// ---- analysis service ----

type statusStep struct {
	state   string
	message string
	err     error
}

type fakeAnalysis struct {
	mu        sync.Mutex
	ids       []string
	submitErr error
	scripts   map[string][]statusStep
	gates     map[string]chan struct{}
	result    string
	resultErr error

	submits     int
	results     int
	statusCalls map[string]int
	requests    []model.JobRequest
}

func newFakeAnalysis(ids ...string) *fakeAnalysis {
	return &fakeAnalysis{
		ids:         ids,
		scripts:     map[string][]statusStep{},
		gates:       map[string]chan struct{}{},
		statusCalls: map[string]int{},
		result:      `{}`,
	}
}

func (f *fakeAnalysis) script(id string, steps ...statusStep) *fakeAnalysis {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[id] = steps
	return f
}

func (f *fakeAnalysis) SubmitJob(ctx context.Context, req model.JobRequest) (model.JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.requests = append(f.requests, req)
	if f.submitErr != nil {
		return model.JobHandle{}, f.submitErr
	}
	id := ""
	if len(f.ids) > 0 {
		id, f.ids = f.ids[0], f.ids[1:]
	}
	return model.JobHandle{ID: id}, nil
}

func (f *fakeAnalysis) GetStatus(ctx context.Context, id string) (model.StatusSnapshot, error) {
	f.mu.Lock()
	gate := f.gates[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.statusCalls[id]
	f.statusCalls[id]++
	steps := f.scripts[id]
	if len(steps) == 0 {
		return model.StatusSnapshot{ID: id, State: model.RemoteStateRunning}, nil
	}
	if n >= len(steps) {
		n = len(steps) - 1
	}
	step := steps[n]
	if step.err != nil {
		return model.StatusSnapshot{}, step.err
	}
	return model.StatusSnapshot{ID: id, State: step.state, Message: step.message}, nil
}

func (f *fakeAnalysis) GetResult(ctx context.Context, id string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results++
	if f.resultErr != nil {
		return nil, f.resultErr
	}
	return json.RawMessage(f.result), nil
}

func (f *fakeAnalysis) counts(id string) (submits, statuses, results int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits, f.statusCalls[id], f.results
}

// ---- notifier ----

type recordingNotifier struct {
	mu       sync.Mutex
	outcomes []model.Outcome
	views    []model.JobView
}

func (r *recordingNotifier) NotifyOutcome(ctx context.Context, view model.JobView, outcome model.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
	r.views = append(r.views, view)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// ---- clock ----

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// ---- helpers ----

var errBoom = errors.New("boom")

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}
