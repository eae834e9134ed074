package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Well-known remote states. The service may report others; anything outside
// the terminal allow-list keeps the job polling.
const (
	RemoteStateSubmitted = "submitted"
	RemoteStateRunning   = "running"
	RemoteStateCompleted = "completed"
	RemoteStateFailed    = "failed"
	RemoteStateError     = "error"
)

var terminalStates = map[string]struct{}{
	RemoteStateCompleted: {},
	RemoteStateFailed:    {},
	RemoteStateError:     {},
}

// Accepted timestamp layouts, tried in order. Zoneless values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// StatusSnapshot is the result of one status check.
type StatusSnapshot struct {
	ID          string     `json:"job_id"`
	State       string     `json:"status"`
	Message     string     `json:"message,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// UnmarshalJSON decodes the timestamps leniently: a value that is missing,
// not a string or in an unknown layout is left nil. Only status drives the
// job, so an odd timestamp must never fail the snapshot.
func (s *StatusSnapshot) UnmarshalJSON(b []byte) error {
	type Alias StatusSnapshot
	aux := struct {
		*Alias
		SubmittedAt json.RawMessage `json:"submitted_at"`
		StartedAt   json.RawMessage `json:"started_at"`
		CompletedAt json.RawMessage `json:"completed_at"`
	}{Alias: (*Alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.SubmittedAt = ParseTimestamp(aux.SubmittedAt)
	s.StartedAt = ParseTimestamp(aux.StartedAt)
	s.CompletedAt = ParseTimestamp(aux.CompletedAt)
	return nil
}

// ParseTimestamp reads a JSON string holding an RFC 3339 or zoneless
// ISO-8601 time. It returns nil for anything else.
func ParseTimestamp(raw json.RawMessage) *time.Time {
	var v string
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

func normState(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// IsTerminal is a membership test against {completed, failed, error},
// compared case-insensitively.
func (s StatusSnapshot) IsTerminal() bool {
	_, ok := terminalStates[normState(s.State)]
	return ok
}

func (s StatusSnapshot) IsCompleted() bool {
	return normState(s.State) == RemoteStateCompleted
}
