package api

import "time"

type (
	// RunID uniquely identifies one demo run
	RunID string

	// RunStatus is the lifecycle state of a run
	RunStatus string

	// RunRecord captures a run's definition and progress. It is the unit
	// stored in the journal and archived on completion
	RunRecord struct {
		ID         RunID         `json:"id"`
		Steps      []*Step       `json:"steps"`
		Settings   Settings      `json:"settings"`
		Status     RunStatus     `json:"status"`
		Results    []*StepResult `json:"results,omitempty"`
		Error      string        `json:"error,omitempty"`
		CreatedAt  time.Time     `json:"created_at"`
		FinishedAt *time.Time    `json:"finished_at,omitempty"`
	}

	// EventType identifies the kind of a run event
	EventType string

	// Event is published for every run and step transition and streamed to
	// WebSocket subscribers
	Event struct {
		Type      EventType   `json:"type"`
		RunID     RunID       `json:"run_id"`
		StepIndex int         `json:"step_index,omitempty"`
		Result    *StepResult `json:"result,omitempty"`
		Error     string      `json:"error,omitempty"`
		Timestamp time.Time   `json:"timestamp"`
	}

	// SubscribeRequest narrows a WebSocket subscription to a single run
	SubscribeRequest struct {
		Type  string `json:"type"`
		RunID RunID  `json:"run_id,omitempty"`
	}
)

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"

	EventRunStarted    EventType = "run_started"
	EventStepStarted   EventType = "step_started"
	EventStepCompleted EventType = "step_completed"
	EventStepFailed    EventType = "step_failed"
	EventRunCompleted  EventType = "run_completed"
	EventRunFailed     EventType = "run_failed"
)

// Finished reports whether the run has reached a terminal status
func (r *RunRecord) Finished() bool {
	return r.Status == RunCompleted || r.Status == RunFailed
}
