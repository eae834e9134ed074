//go:build !integration

package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"interview-analysis/internal/domain"
)

// --- JobRequest Tests ---

func TestJobRequestValidate(t *testing.T) {
	valid := JobRequest{VideoLocator: "s3://b/v.mp4", CustomPrompt: "p", OriginalQuestion: "q"}

	t.Run("should accept a complete request", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
	})

	t.Run("should name the first blank field", func(t *testing.T) {
		req := valid
		req.CustomPrompt = " "
		req.OriginalQuestion = ""
		err := req.Validate()
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation, but got %v", err)
		}
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != "custom_prompt" {
			t.Errorf("expected custom_prompt, but got %v", err)
		}
		if err.Error() != "custom_prompt is required" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

// --- Elapsed Formatting Tests ---

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{999 * time.Millisecond, "00:00"},
		{5 * time.Second, "00:05"},
		{65 * time.Second, "01:05"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{2 * time.Hour, "120:00"},
		{-time.Second, "00:00"},
	}
	for _, tc := range cases {
		if got := FormatElapsed(tc.d); got != tc.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

// --- Status Snapshot Tests ---

func TestStatusSnapshotTerminal(t *testing.T) {
	cases := []struct {
		state     string
		terminal  bool
		completed bool
	}{
		{"submitted", false, false},
		{"running", false, false},
		{"paused", false, false},
		{"", false, false},
		{"completed", true, true},
		{"COMPLETED", true, true},
		{" Completed ", true, true},
		{"failed", true, false},
		{"Error", true, false},
	}
	for _, tc := range cases {
		s := StatusSnapshot{State: tc.state}
		if s.IsTerminal() != tc.terminal || s.IsCompleted() != tc.completed {
			t.Errorf("%q: terminal=%v completed=%v", tc.state, s.IsTerminal(), s.IsCompleted())
		}
	}
}

func TestStatusSnapshotTimestamps(t *testing.T) {
	t.Run("zoneless timestamps are read as UTC", func(t *testing.T) {
		var s StatusSnapshot
		raw := `{"job_id":"abc123","status":"completed","submitted_at":"2025-10-01T12:49:07.123456","started_at":"2025-10-01 12:49:09"}`
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if !s.IsCompleted() {
			t.Errorf("status lost: %+v", s)
		}
		want := time.Date(2025, 10, 1, 12, 49, 7, 123456000, time.UTC)
		if s.SubmittedAt == nil || !s.SubmittedAt.Equal(want) {
			t.Errorf("submitted_at = %v, want %v", s.SubmittedAt, want)
		}
		if s.StartedAt == nil || s.StartedAt.Second() != 9 {
			t.Errorf("started_at = %v", s.StartedAt)
		}
	})

	t.Run("unreadable timestamps are dropped, not fatal", func(t *testing.T) {
		var s StatusSnapshot
		raw := `{"status":"failed","submitted_at":"yesterday","started_at":1727786947,"completed_at":null}`
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if s.State != "failed" || s.SubmittedAt != nil || s.StartedAt != nil || s.CompletedAt != nil {
			t.Errorf("unexpected snapshot %+v", s)
		}
	})

	t.Run("rfc3339 keeps its offset", func(t *testing.T) {
		var s StatusSnapshot
		if err := json.Unmarshal([]byte(`{"status":"running","started_at":"2026-01-01T12:00:02+03:30"}`), &s); err != nil {
			t.Fatal(err)
		}
		want := time.Date(2026, 1, 1, 8, 30, 2, 0, time.UTC)
		if s.StartedAt == nil || !s.StartedAt.Equal(want) {
			t.Errorf("started_at = %v", s.StartedAt)
		}
	})
}

// --- Outcome Tests ---

func TestOutcomes(t *testing.T) {
	t.Run("server failure falls back to the status", func(t *testing.T) {
		o := ServerFailure(StatusSnapshot{ID: "j1", State: "error"})
		if o.Succeeded() || o.Message != "job ended with status error" {
			t.Errorf("unexpected outcome %+v", o)
		}
		if o.Details["job_id"] != "j1" {
			t.Errorf("details = %v", o.Details)
		}
		if !errors.Is(o.Err, domain.ErrServerReportedFailure) {
			t.Errorf("err = %v", o.Err)
		}
	})

	t.Run("server failure keeps the server message", func(t *testing.T) {
		o := ServerFailure(StatusSnapshot{ID: "abc123", State: "failed", Message: "model timeout"})
		if o.Message != "model timeout" || o.Details["status"] != "failed" {
			t.Errorf("unexpected outcome %+v", o)
		}
	})

	t.Run("fetch failure embeds the error", func(t *testing.T) {
		o := FetchFailure("j1", errors.New("404 Not Found"))
		if o.Message != "Failed to fetch result: 404 Not Found" {
			t.Errorf("message = %q", o.Message)
		}
		if o.Details["status"] != RemoteStateCompleted {
			t.Errorf("details = %v", o.Details)
		}
		if errors.Is(o.Err, domain.ErrServerReportedFailure) {
			t.Error("a fetch failure is not reported by the server")
		}
	})

	t.Run("validation failure names the field", func(t *testing.T) {
		o := ValidationFailure(&domain.ValidationError{Field: "video_s3_url"})
		if o.Details["field"] != "video_s3_url" || o.Kind != OutcomeFailure {
			t.Errorf("unexpected outcome %+v", o)
		}
	})
}

// --- History Record Tests ---

func TestDecodeHistoryRecord(t *testing.T) {
	t.Run("empty input is an empty current record", func(t *testing.T) {
		rec, err := DecodeHistoryRecord("  ")
		if err != nil || rec.Version != HistoryRecordVersion || len(rec.Entries) != 0 {
			t.Errorf("got %+v, %v", rec, err)
		}
	})

	t.Run("legacy array", func(t *testing.T) {
		rec, err := DecodeHistoryRecord(`["a","b"]`)
		if err != nil || rec.Version != 0 || len(rec.Entries) != 2 {
			t.Errorf("got %+v, %v", rec, err)
		}
	})

	t.Run("future version is rejected", func(t *testing.T) {
		if _, err := DecodeHistoryRecord(`{"version":2,"entries":[]}`); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("encode always writes the current version", func(t *testing.T) {
		raw, err := HistoryRecord{Version: 0}.Encode()
		if err != nil {
			t.Fatal(err)
		}
		if raw != `{"version":1,"entries":[]}` {
			t.Errorf("got %s", raw)
		}
	})
}
