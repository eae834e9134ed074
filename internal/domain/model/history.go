package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

const HistoryRecordVersion = 1

// HistoryRecord is the persisted form of the history list, most recent first.
type HistoryRecord struct {
	Version int      `json:"version"`
	Entries []string `json:"entries"`
}

// DecodeHistoryRecord reads a stored record. A bare JSON array is the legacy
// unversioned form and is read as version 0.
func DecodeHistoryRecord(raw string) (HistoryRecord, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return HistoryRecord{Version: HistoryRecordVersion}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var entries []string
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return HistoryRecord{}, fmt.Errorf("decode legacy history: %w", err)
		}
		return HistoryRecord{Version: 0, Entries: entries}, nil
	}
	var rec HistoryRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return HistoryRecord{}, fmt.Errorf("decode history: %w", err)
	}
	if rec.Version > HistoryRecordVersion {
		return HistoryRecord{}, fmt.Errorf("unsupported history version %d", rec.Version)
	}
	return rec, nil
}

func (r HistoryRecord) Encode() (string, error) {
	r.Version = HistoryRecordVersion
	if r.Entries == nil {
		r.Entries = []string{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
