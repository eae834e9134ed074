package usecase

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"interview-analysis/internal/domain/model"
	"interview-analysis/internal/infra/logging"
)

const testHistoryKey = "test:history"

func newTestHistory(t *testing.T, kv *memKV, max int) *historyUC {
	t.Helper()
	h := NewHistoryUseCase(kv, testHistoryKey, max, logging.Nop())
	if err := h.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return h
}

func TestHistoryRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("recording twice keeps one entry at the front", func(t *testing.T) {
		h := newTestHistory(t, newMemKV(), 10)
		_ = h.Record(ctx, "a")
		_ = h.Record(ctx, "x")
		_ = h.Record(ctx, "x")
		if got, want := h.List(), []string{"x", "a"}; !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("re-recording promotes to the front", func(t *testing.T) {
		h := newTestHistory(t, newMemKV(), 10)
		for _, v := range []string{"a", "b", "c", "a"} {
			_ = h.Record(ctx, v)
		}
		if got, want := h.List(), []string{"a", "c", "b"}; !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("blank values are ignored", func(t *testing.T) {
		kv := newMemKV()
		h := newTestHistory(t, kv, 10)
		_ = h.Record(ctx, "")
		_ = h.Record(ctx, "   ")
		if len(h.List()) != 0 {
			t.Errorf("expected empty history, got %v", h.List())
		}
		if kv.sets != 0 {
			t.Errorf("expected no writes, got %d", kv.sets)
		}
	})

	t.Run("cap evicts the oldest entries first", func(t *testing.T) {
		h := newTestHistory(t, newMemKV(), 10)
		for i := 0; i < 13; i++ {
			_ = h.Record(ctx, fmt.Sprintf("v%d", i))
		}
		got := h.List()
		if len(got) != 10 {
			t.Fatalf("expected 10 entries, got %d", len(got))
		}
		if got[0] != "v12" || got[9] != "v3" {
			t.Errorf("unexpected order: %v", got)
		}
	})

	t.Run("cap of fifty", func(t *testing.T) {
		h := newTestHistory(t, newMemKV(), 50)
		for i := 0; i < 60; i++ {
			_ = h.Record(ctx, fmt.Sprintf("v%d", i))
		}
		if n := len(h.List()); n != 50 {
			t.Errorf("expected 50 entries, got %d", n)
		}
	})

	t.Run("full record is persisted in versioned form", func(t *testing.T) {
		kv := newMemKV()
		h := newTestHistory(t, kv, 10)
		_ = h.Record(ctx, "s3://b/one.mp4")
		_ = h.Record(ctx, "s3://b/two.mp4")

		raw, ok := kv.raw(testHistoryKey)
		if !ok {
			t.Fatal("nothing persisted")
		}
		rec, err := model.DecodeHistoryRecord(raw)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Version != model.HistoryRecordVersion {
			t.Errorf("version = %d", rec.Version)
		}
		if want := []string{"s3://b/two.mp4", "s3://b/one.mp4"}; !reflect.DeepEqual(rec.Entries, want) {
			t.Errorf("persisted %v, want %v", rec.Entries, want)
		}
	})

	t.Run("persist failure still updates memory", func(t *testing.T) {
		kv := newMemKV()
		h := newTestHistory(t, kv, 10)
		kv.setErr = errBoom
		if err := h.Record(ctx, "a"); err == nil {
			t.Fatal("expected persist error")
		}
		if got := h.List(); !reflect.DeepEqual(got, []string{"a"}) {
			t.Errorf("got %v", got)
		}
	})
}

func TestHistoryClear(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	h := newTestHistory(t, kv, 10)
	_ = h.Record(ctx, "a")
	_ = h.Record(ctx, "b")

	if err := h.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if got := h.List(); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
	if _, ok := kv.raw(testHistoryKey); ok {
		t.Error("persisted record should be removed")
	}
	if err := h.Clear(ctx); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestHistoryLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("absent record is an empty history", func(t *testing.T) {
		h := newTestHistory(t, newMemKV(), 10)
		if got := h.List(); got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", got)
		}
	})

	t.Run("versioned record", func(t *testing.T) {
		kv := newMemKV()
		kv.data[testHistoryKey] = `{"version":1,"entries":["b","a"]}`
		h := newTestHistory(t, kv, 10)
		if got := h.List(); !reflect.DeepEqual(got, []string{"b", "a"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("legacy array is migrated on next write", func(t *testing.T) {
		kv := newMemKV()
		kv.data[testHistoryKey] = `["b","a","b",""]`
		h := newTestHistory(t, kv, 10)
		if got := h.List(); !reflect.DeepEqual(got, []string{"b", "a"}) {
			t.Fatalf("got %v", got)
		}
		_ = h.Record(ctx, "c")
		raw, _ := kv.raw(testHistoryKey)
		if raw != `{"version":1,"entries":["c","b","a"]}` {
			t.Errorf("not migrated: %s", raw)
		}
	})

	t.Run("stored list longer than cap is truncated", func(t *testing.T) {
		kv := newMemKV()
		kv.data[testHistoryKey] = `["1","2","3","4","5","6","7","8","9","10","11","12"]`
		h := newTestHistory(t, kv, 10)
		if n := len(h.List()); n != 10 {
			t.Errorf("expected 10, got %d", n)
		}
	})

	t.Run("garbage is discarded", func(t *testing.T) {
		kv := newMemKV()
		kv.data[testHistoryKey] = `not json`
		h := newTestHistory(t, kv, 10)
		if n := len(h.List()); n != 0 {
			t.Errorf("expected empty, got %d", n)
		}
	})

	t.Run("store error is returned", func(t *testing.T) {
		kv := newMemKV()
		kv.getErr = errBoom
		h := NewHistoryUseCase(kv, testHistoryKey, 10, logging.Nop())
		if err := h.Load(ctx); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestHistoryListReturnsCopy(t *testing.T) {
	h := newTestHistory(t, newMemKV(), 10)
	_ = h.Record(context.Background(), "a")
	l := h.List()
	l[0] = "mutated"
	if h.List()[0] != "a" {
		t.Error("List must not expose internal state")
	}
}
