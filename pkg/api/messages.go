package api

import "time"

type (
	// CreateRunRequest contains parameters for starting a new demo run
	CreateRunRequest struct {
		Steps    []*Step  `json:"steps"`
		Settings Settings `json:"settings"`
	}

	// RunStartedResponse is returned when a run starts successfully
	RunStartedResponse struct {
		RunID RunID `json:"run_id"`
	}

	// RunDigest provides summary information about a run
	RunDigest struct {
		ID         RunID      `json:"id"`
		Status     RunStatus  `json:"status"`
		StepCount  int        `json:"step_count"`
		CreatedAt  time.Time  `json:"created_at"`
		FinishedAt *time.Time `json:"finished_at,omitempty"`
		Error      string     `json:"error,omitempty"`
	}

	// RunsListResponse contains a list of run summaries
	RunsListResponse struct {
		Runs  []*RunDigest `json:"runs"`
		Count int          `json:"count"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Service string `json:"service"`
		Status  string `json:"status"`
	}

	// ErrorResponse is the uniform error payload for API failures
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
)

// Digest summarizes a run record for list responses
func (r *RunRecord) Digest() *RunDigest {
	return &RunDigest{
		ID:         r.ID,
		Status:     r.Status,
		StepCount:  len(r.Steps),
		CreatedAt:  r.CreatedAt,
		FinishedAt: r.FinishedAt,
		Error:      r.Error,
	}
}
