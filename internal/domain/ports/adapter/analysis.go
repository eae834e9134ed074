package adapter

import (
	"context"
	"encoding/json"

	"interview-analysis/internal/domain/model"
)

// AnalysisService is the port for the remote interview-analysis service.
type AnalysisService interface {
	// SubmitJob fails with a NetworkError, or a ProtocolError when the
	// response carries no job id.
	SubmitJob(ctx context.Context, req model.JobRequest) (model.JobHandle, error)
	GetStatus(ctx context.Context, jobID string) (model.StatusSnapshot, error)
	// GetResult returns the raw JSON object produced by the job.
	GetResult(ctx context.Context, jobID string) (json.RawMessage, error)
}
