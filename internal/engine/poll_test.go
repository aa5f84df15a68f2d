package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showkit/showrunner/internal/client/clienttest"
	"github.com/showkit/showrunner/pkg/api"
)

func newTestPoller(caller *clienttest.Caller) (*Poller, *int) {
	p := NewPoller(caller)
	waits := 0
	p.wait = func(context.Context, time.Duration) error {
		waits++
		return nil
	}
	return p, &waits
}

func TestPollSuccess(t *testing.T) {
	// success on the third attempt
	caller := clienttest.New(
		clienttest.JSON(200, `{"status":"pending"}`),
		clienttest.JSON(200, `{"status":"pending"}`),
		clienttest.JSON(200, `{"status":"done"}`),
	)
	p, waits := newTestPoller(caller)

	res, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		SuccessWhen: "status == 'done'",
	}, &api.Settings{}, "http://api.test", nil, api.Vars{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, map[string]any{"status": "done"}, res.Response)
	assert.Equal(t, 2, *waits)
}

func TestPollTimeout(t *testing.T) {
	// exactly max attempts, then a timeout error
	caller := clienttest.New(clienttest.JSON(200, `{"status":"pending"}`))
	p, _ := newTestPoller(caller)

	_, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		MaxAttempts: 2,
		SuccessWhen: "status == 'done'",
	}, &api.Settings{}, "http://api.test", nil, api.Vars{})

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 2, timeout.MaxAttempts)
	assert.Equal(t, 2, caller.CallCount())
}

func TestPollFailureCondition(t *testing.T) {
	// failure condition matched on the first attempt
	caller := clienttest.New(clienttest.JSON(200, `{"status":"failed"}`))
	p, _ := newTestPoller(caller)

	_, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		SuccessWhen: "status == 'done'",
		FailureWhen: "status == 'failed'",
	}, &api.Settings{}, "http://api.test", nil, api.Vars{})

	var failure *FailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, failure.Attempts)
	assert.Equal(t, "status == 'failed'", failure.Condition)
	assert.Equal(t, 1, caller.CallCount())
}

func TestPollSuccessCheckedBeforeFailure(t *testing.T) {
	// both conditions match the same response; success must win
	caller := clienttest.New(clienttest.JSON(200, `{"status":"done"}`))
	p, _ := newTestPoller(caller)

	res, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		SuccessWhen: "status != 'missing'",
		FailureWhen: "status == 'done'",
	}, &api.Settings{}, "http://api.test", nil, api.Vars{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
}

func TestPollEndpointResolution(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		vars     api.Vars
		want     string
	}{
		{"relative", "/jobs/$id", api.Vars{"id": "7"},
			"http://api.test/jobs/7"},
		{"absolute overrides base", "https://other.test/jobs/1",
			api.Vars{}, "https://other.test/jobs/1"},
		{"substituted absolute", "$target", api.Vars{
			"target": "https://other.test/jobs/1",
		}, "https://other.test/jobs/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := clienttest.New(clienttest.JSON(200, `{"ok":true}`))
			p, _ := newTestPoller(caller)

			_, err := p.Poll(context.Background(), &api.PollConfig{
				Endpoint:    tt.endpoint,
				SuccessWhen: "ok == true",
			}, &api.Settings{}, "http://api.test", nil, tt.vars)
			require.NoError(t, err)

			call := caller.Calls()[0]
			assert.Equal(t, "GET", call.Method)
			assert.Equal(t, tt.want, call.URL)
		})
	}
}

func TestPollUnparsableConditionDegradesToTimeout(t *testing.T) {
	caller := clienttest.New(clienttest.JSON(200, `{"status":"done"}`))
	p, _ := newTestPoller(caller)

	_, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		MaxAttempts: 3,
		SuccessWhen: "status is done",
	}, &api.Settings{}, "http://api.test", nil, api.Vars{})

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 3, caller.CallCount())
}

func TestPollUnparsableBodyNotFatal(t *testing.T) {
	caller := clienttest.New(
		clienttest.JSON(200, `not json`),
		clienttest.JSON(200, `{"status":"done"}`),
	)
	p, _ := newTestPoller(caller)

	res, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		SuccessWhen: "status == 'done'",
	}, &api.Settings{}, "http://api.test", nil, api.Vars{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
}

func TestPollTransportFailurePropagates(t *testing.T) {
	boom := errors.New("connection reset")
	caller := clienttest.New(clienttest.Fail(boom))
	p, _ := newTestPoller(caller)

	_, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		SuccessWhen: "status == 'done'",
	}, &api.Settings{}, "http://api.test", nil, api.Vars{})
	assert.ErrorIs(t, err, boom)
}

func TestPollDefaults(t *testing.T) {
	caller := clienttest.New(clienttest.JSON(200, `{}`))
	p := NewPoller(caller)

	var waited time.Duration
	attempts := 0
	p.wait = func(_ context.Context, d time.Duration) error {
		waited = d
		attempts++
		if attempts >= 2 {
			// cut the loop short once the interval is observed
			return context.Canceled
		}
		return nil
	}

	_, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		SuccessWhen: "status == 'done'",
	}, &api.Settings{}, "", nil, api.Vars{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2*time.Second, waited)
}

func TestPollSettingsOverrideDefaults(t *testing.T) {
	caller := clienttest.New(clienttest.JSON(200, `{}`))
	p := NewPoller(caller)

	var waited time.Duration
	p.wait = func(_ context.Context, d time.Duration) error {
		waited = d
		return nil
	}

	_, err := p.Poll(context.Background(), &api.PollConfig{
		Endpoint:    "/jobs/1",
		SuccessWhen: "status == 'done'",
	}, &api.Settings{
		PollIntervalMs:  100,
		PollMaxAttempts: 2,
	}, "", nil, api.Vars{})

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 2, timeout.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, waited)
}

func TestPollCancellation(t *testing.T) {
	caller := clienttest.New(clienttest.JSON(200, `{"status":"pending"}`))
	p := NewPoller(caller)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := p.Poll(ctx, &api.PollConfig{
		Endpoint:    "/jobs/1",
		IntervalMs:  60_000,
		SuccessWhen: "status == 'done'",
	}, &api.Settings{}, "http://api.test", nil, api.Vars{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecuteWithPoll(t *testing.T) {
	// a variable bound by the initial response must be visible to the
	// poll endpoint template
	caller := clienttest.New(
		clienttest.JSON(202, `{"job_id":"j42"}`),
		clienttest.JSON(200, `{"state":"working"}`),
		clienttest.JSON(200, `{"state":"done"}`),
	)
	e := NewExecutor(caller)
	e.poller.wait = func(context.Context, time.Duration) error {
		return nil
	}

	vars := api.Vars{}
	res, err := e.Execute(context.Background(), &api.Step{
		Request: "POST /jobs",
		Save:    map[string]string{"jobId": "job_id"},
		Poll: &api.PollConfig{
			Endpoint:    "/jobs/$jobId",
			SuccessWhen: "state == 'done'",
		},
	}, &api.Settings{BaseURL: "http://api.test"}, vars)
	require.NoError(t, err)

	calls := caller.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "http://api.test/jobs/j42", calls[1].URL)

	require.NotNil(t, res.Poll)
	assert.Equal(t, 2, res.Poll.Attempts)
	assert.Equal(t, map[string]any{"state": "done"}, res.Body)
	assert.Equal(t, map[string]any{"state": "done"}, res.Poll.Response)
	assert.Equal(t, 202, res.Status)
}

func TestExecutePollFailureFailsStep(t *testing.T) {
	caller := clienttest.New(
		clienttest.JSON(202, `{"job_id":"j1"}`),
		clienttest.JSON(200, `{"state":"error"}`),
	)
	e := NewExecutor(caller)
	e.poller.wait = func(context.Context, time.Duration) error {
		return nil
	}

	_, err := e.Execute(context.Background(), &api.Step{
		Request: "POST /jobs",
		Poll: &api.PollConfig{
			Endpoint:    "/jobs/j1",
			SuccessWhen: "state == 'done'",
			FailureWhen: "state == 'error'",
		},
	}, &api.Settings{BaseURL: "http://api.test"}, api.Vars{})

	var failure *FailureError
	assert.ErrorAs(t, err, &failure)
}
