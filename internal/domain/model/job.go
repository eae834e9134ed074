package model

import (
	"fmt"
	"strings"
	"time"

	"interview-analysis/internal/domain"
)

// JobRequest is the immutable input of one analysis job.
type JobRequest struct {
	VideoLocator     string `json:"video_s3_url"`
	CustomPrompt     string `json:"custom_prompt"`
	OriginalQuestion string `json:"original_question"`
}

// Validate reports the first blank field as a *domain.ValidationError.
func (r JobRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.VideoLocator) == "":
		return &domain.ValidationError{Field: "video_s3_url"}
	case strings.TrimSpace(r.CustomPrompt) == "":
		return &domain.ValidationError{Field: "custom_prompt"}
	case strings.TrimSpace(r.OriginalQuestion) == "":
		return &domain.ValidationError{Field: "original_question"}
	}
	return nil
}

// JobHandle is the server-assigned polling key.
type JobHandle struct {
	ID string `json:"job_id"`
}

type JobState string

const (
	JobStateIdle       JobState = "idle"
	JobStateSubmitting JobState = "submitting"
	JobStatePolling    JobState = "polling"
	JobStateSucceeded  JobState = "succeeded"
	JobStateFailed     JobState = "failed"
)

func (s JobState) IsTerminal() bool {
	return s == JobStateSucceeded || s == JobStateFailed
}

// JobView is a read-only snapshot of the orchestrator for progressive display.
type JobView struct {
	SubmissionID  string          `json:"submission_id,omitempty"`
	State         JobState        `json:"state"`
	JobID         string          `json:"job_id,omitempty"`
	StatusMessage string          `json:"status_message,omitempty"`
	Elapsed       string          `json:"elapsed"`
	Snapshot      *StatusSnapshot `json:"snapshot,omitempty"`
	Outcome       *Outcome        `json:"-"`
}

// FormatElapsed renders whole elapsed seconds as MM:SS. Minutes are not
// capped, so a two hour job shows 120:00.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
