package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/showkit/showrunner/internal/client"
	"github.com/showkit/showrunner/internal/condition"
	"github.com/showkit/showrunner/internal/template"
	"github.com/showkit/showrunner/pkg/api"
	"github.com/showkit/showrunner/pkg/log"
)

type (
	// Poller repeatedly issues a GET request until a success or failure
	// condition matches or the attempt bound is exhausted. The state
	// machine is Polling -> {Success, Failure, Timeout}; every outcome is
	// terminal. Success takes priority over failure on each iteration
	Poller struct {
		caller client.Caller
		wait   WaitFunc
	}

	// WaitFunc suspends between attempts, honoring cancellation
	WaitFunc func(context.Context, time.Duration) error

	// FailureError reports a matched failure condition
	FailureError struct {
		Condition string
		Attempts  int
	}

	// TimeoutError reports poll exhaustion without success or failure
	TimeoutError struct {
		MaxAttempts int
	}
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NewPoller creates a poller performing requests through caller
func NewPoller(caller client.Caller) *Poller {
	return &Poller{
		caller: caller,
		wait:   sleepWait,
	}
}

// Poll resolves the poll endpoint and loops until an outcome is reached.
// An endpoint template that substitutes to an absolute URL overrides the
// base URL. Each attempt parses the response (nil on parse failure) and
// checks the success condition before the failure condition. The
// inter-attempt wait and the requests both honor ctx, so a run can be
// aborted mid-poll.
func (p *Poller) Poll(
	ctx context.Context, cfg *api.PollConfig, settings *api.Settings,
	baseURL string, headers map[string]string, vars api.Vars,
) (*api.PollResult, error) {
	endpoint := template.Substitute(cfg.Endpoint, vars)
	if !schemePattern.MatchString(endpoint) {
		endpoint = baseURL + endpoint
	}

	interval := cfg.IntervalMs
	if interval <= 0 {
		interval = settings.PollIntervalMs
	}
	if interval <= 0 {
		interval = api.DefaultPollIntervalMs
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = settings.PollMaxAttempts
	}
	if maxAttempts <= 0 {
		maxAttempts = api.DefaultPollMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := p.caller.Call(
			ctx, http.MethodGet, endpoint, headers, nil,
		)
		if err != nil {
			return nil, err
		}
		body := parseBody(resp.Body)

		if condition.Evaluate(cfg.SuccessWhen, body).Match() {
			slog.Debug("Poll succeeded",
				slog.String("endpoint", endpoint),
				log.Attempt(attempt))
			return &api.PollResult{
				Attempts: attempt,
				Response: body,
			}, nil
		}

		if cfg.FailureWhen != "" &&
			condition.Evaluate(cfg.FailureWhen, body).Match() {
			return nil, &FailureError{
				Condition: cfg.FailureWhen,
				Attempts:  attempt,
			}
		}

		if attempt < maxAttempts {
			d := time.Duration(interval) * time.Millisecond
			if err := p.wait(ctx, d); err != nil {
				return nil, err
			}
		}
	}

	return nil, &TimeoutError{MaxAttempts: maxAttempts}
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("poll failure condition matched on attempt %d: %s",
		e.Attempts, e.Condition)
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("poll timed out after %d attempts", e.MaxAttempts)
}

func sleepWait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
