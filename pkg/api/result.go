package api

type (
	// ResolvedRequest echoes the request a step actually performed, after
	// variable substitution
	ResolvedRequest struct {
		Method  string            `json:"method"`
		URL     string            `json:"url"`
		Headers map[string]string `json:"headers,omitempty"`
		Body    any               `json:"body,omitempty"`
	}

	// StepResult is the read-only outcome of one step execution. Body is
	// nil when the response could not be parsed as JSON. When polling
	// occurred, Body holds the poll's final response
	StepResult struct {
		Request ResolvedRequest `json:"request"`
		Status  int             `json:"status"`
		Body    any             `json:"body,omitempty"`
		Poll    *PollResult     `json:"poll,omitempty"`
	}

	// PollResult reports how a successful poll concluded
	PollResult struct {
		Attempts int `json:"attempts"`
		Response any `json:"response,omitempty"`
	}
)
