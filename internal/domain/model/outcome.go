package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"interview-analysis/internal/domain"
)

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

// Outcome is the single value handed to the presenter: either a success
// payload or a normalized failure, never a raw status object.
type Outcome struct {
	Kind    OutcomeKind
	Payload json.RawMessage
	Message string
	Details map[string]any
	// Err is the failure cause for errors.Is checks; nil on success.
	Err error
}

func (o Outcome) Succeeded() bool { return o.Kind == OutcomeSuccess }

func SuccessOutcome(payload json.RawMessage) Outcome {
	return Outcome{Kind: OutcomeSuccess, Payload: payload}
}

// ValidationFailure normalizes a local validation error.
func ValidationFailure(err error) Outcome {
	details := map[string]any{}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		details["field"] = ve.Field
	}
	return Outcome{Kind: OutcomeFailure, Message: err.Error(), Details: details, Err: err}
}

// SubmissionFailure normalizes a failed submission call.
func SubmissionFailure(err error) Outcome {
	return Outcome{
		Kind:    OutcomeFailure,
		Message: "Request failed",
		Details: map[string]any{"error": err.Error()},
		Err:     err,
	}
}

// ServerFailure carries the server's message, status and job id. Its Err
// matches domain.ErrServerReportedFailure.
func ServerFailure(snap StatusSnapshot) Outcome {
	msg := snap.Message
	if msg == "" {
		msg = "job ended with status " + snap.State
	}
	return Outcome{
		Kind:    OutcomeFailure,
		Message: msg,
		Details: map[string]any{
			"job_id":  snap.ID,
			"status":  snap.State,
			"message": snap.Message,
		},
		Err: fmt.Errorf("%w: job %s: %s", domain.ErrServerReportedFailure, snap.ID, msg),
	}
}

// FetchFailure embeds a result-fetch error for a job that completed remotely.
func FetchFailure(jobID string, err error) Outcome {
	return Outcome{
		Kind:    OutcomeFailure,
		Message: "Failed to fetch result: " + err.Error(),
		Details: map[string]any{
			"job_id": jobID,
			"status": RemoteStateCompleted,
			"error":  err.Error(),
		},
		Err: err,
	}
}

// PollingFailure is used when consecutive status-check errors are treated
// as fatal.
func PollingFailure(jobID string, err error) Outcome {
	return Outcome{
		Kind:    OutcomeFailure,
		Message: "Status checks kept failing: " + err.Error(),
		Details: map[string]any{
			"job_id": jobID,
			"error":  err.Error(),
		},
		Err: err,
	}
}
