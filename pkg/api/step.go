package api

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// Vars is the mutable variable store threaded across the steps of one
	// demo run. It is owned by the run context and passed by reference into
	// each step execution; bindings are upserted, later steps may overwrite
	// earlier ones.
	Vars map[string]any

	// Step describes one declarative unit of demo playback: a REST call,
	// optional response bindings, and an optional follow-up poll
	Step struct {
		Request string            `json:"request"`
		Headers map[string]string `json:"headers,omitempty"`
		Body    any               `json:"body,omitempty"`
		Fields  []FormField       `json:"fields,omitempty"`
		BaseURL string            `json:"base_url,omitempty"`
		Save    map[string]string `json:"save,omitempty"`
		Poll    *PollConfig       `json:"poll,omitempty"`
	}

	// FormField is a named request body field with a default value
	FormField struct {
		Name    string `json:"name"`
		Default any    `json:"default,omitempty"`
	}

	// PollConfig configures bounded-retry waiting on an asynchronous
	// condition after the step's initial request
	PollConfig struct {
		Endpoint    string `json:"endpoint"`
		IntervalMs  int64  `json:"interval_ms,omitempty"`
		MaxAttempts int    `json:"max_attempts,omitempty"`
		SuccessWhen string `json:"success_when"`
		FailureWhen string `json:"failure_when,omitempty"`
	}

	// Settings supplies run-level defaults for steps that don't override
	// them
	Settings struct {
		BaseURL         string `json:"base_url,omitempty"`
		PollIntervalMs  int64  `json:"poll_interval_ms,omitempty"`
		PollMaxAttempts int    `json:"poll_max_attempts,omitempty"`
	}
)

const (
	// StatusPath is the reserved save-mapping path that binds the HTTP
	// status code instead of a response body field
	StatusPath = "_status"

	DefaultPollIntervalMs  int64 = 2000
	DefaultPollMaxAttempts       = 30
)

var (
	ErrRequestEmpty      = errors.New("step request empty")
	ErrSaveNameEmpty     = errors.New("save mapping name empty")
	ErrPollEndpointEmpty = errors.New("poll endpoint empty")
	ErrPollSuccessEmpty  = errors.New("poll success condition empty")
	ErrPollNegative      = errors.New("poll values cannot be negative")
)

// Validate checks that the step is well-formed enough to execute
func (s *Step) Validate() error {
	if strings.TrimSpace(s.Request) == "" {
		return ErrRequestEmpty
	}
	for name := range s.Save {
		if name == "" {
			return ErrSaveNameEmpty
		}
	}
	if s.Poll != nil {
		return s.Poll.Validate()
	}
	return nil
}

// Validate checks that the poll configuration is well-formed
func (p *PollConfig) Validate() error {
	if strings.TrimSpace(p.Endpoint) == "" {
		return ErrPollEndpointEmpty
	}
	if strings.TrimSpace(p.SuccessWhen) == "" {
		return ErrPollSuccessEmpty
	}
	if p.IntervalMs < 0 || p.MaxAttempts < 0 {
		return fmt.Errorf("%w: interval=%d attempts=%d",
			ErrPollNegative, p.IntervalMs, p.MaxAttempts)
	}
	return nil
}

// Put binds a value into the store, overwriting any previous binding
func (v Vars) Put(name string, value any) {
	v[name] = value
}

// Lookup retrieves a binding by name
func (v Vars) Lookup(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}
