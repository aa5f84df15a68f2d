// Package engine turns declarative step descriptors into HTTP requests,
// binds response-derived values into the run's variable store, and drives
// the bounded-retry polling loop for asynchronous conditions.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/showkit/showrunner/internal/client"
	"github.com/showkit/showrunner/internal/extract"
	"github.com/showkit/showrunner/internal/template"
	"github.com/showkit/showrunner/pkg/api"
	"github.com/showkit/showrunner/pkg/log"
	"github.com/showkit/showrunner/pkg/util"
)

// Executor resolves and performs one step at a time. It holds no state of
// its own; the variable store belongs to the run context and is only
// borrowed for the duration of a step
type Executor struct {
	caller client.Caller
	poller *Poller
}

// BodyMethods is the set of verbs that carry an automatically constructed
// request body. GET-like verbs never get one, even when the step declares
// a body or form fields
var BodyMethods = util.SetOf("POST", "PUT", "PATCH")

var (
	ErrMarshalBody = errors.New("failed to marshal request body")
)

const contentTypeHeader = "Content-Type"

// NewExecutor creates a step executor performing requests through caller
func NewExecutor(caller client.Caller) *Executor {
	return &Executor{
		caller: caller,
		poller: NewPoller(caller),
	}
}

// Execute resolves the step's request against the variable store, performs
// it, commits save-mapping bindings, and runs the optional poll. Bindings
// from the initial response are committed before polling begins, so a poll
// endpoint may reference a variable the response just produced. Transport
// failures propagate; an unparsable response body does not.
func (e *Executor) Execute(
	ctx context.Context, step *api.Step, settings *api.Settings,
	vars api.Vars,
) (*api.StepResult, error) {
	if settings == nil {
		settings = &api.Settings{}
	}

	method, endpoint := splitRequest(step.Request)
	endpoint = template.Substitute(endpoint, vars)

	baseURL := step.BaseURL
	if baseURL == "" {
		baseURL = settings.BaseURL
	}
	// literal concatenation; duplicate slashes are the author's to avoid
	url := baseURL + endpoint

	headers := map[string]string{
		contentTypeHeader: "application/json",
	}
	for k, v := range step.Headers {
		headers[k] = template.Substitute(v, vars)
	}

	body := buildBody(step, method, vars)

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMarshalBody, err)
		}
		payload = data
	}

	resp, err := e.caller.Call(ctx, method, url, headers, payload)
	if err != nil {
		return nil, err
	}

	parsed := parseBody(resp.Body)
	e.saveBindings(step, resp.Status, parsed, vars)

	result := &api.StepResult{
		Request: api.ResolvedRequest{
			Method:  method,
			URL:     url,
			Headers: headers,
			Body:    body,
		},
		Status: resp.Status,
		Body:   parsed,
	}

	if step.Poll != nil {
		pr, err := e.poller.Poll(
			ctx, step.Poll, settings, baseURL, headers, vars,
		)
		if err != nil {
			return nil, err
		}
		result.Poll = pr
		result.Body = pr.Response
	}

	return result, nil
}

// saveBindings commits the step's save mappings against the initial
// response. The reserved path binds the status code; body paths bind only
// when extraction succeeds, so a missing path leaves the store untouched
// for that name
func (e *Executor) saveBindings(
	step *api.Step, status int, body any, vars api.Vars,
) {
	for name, path := range step.Save {
		if path == api.StatusPath {
			vars.Put(name, status)
			continue
		}
		if body == nil {
			continue
		}
		if val, ok := extract.Extract(body, path); ok {
			vars.Put(name, val)
		} else {
			slog.Debug("Save mapping path not found",
				slog.String("name", name),
				slog.String("path", path))
		}
	}
}

// buildBody constructs the request body for body-capable methods. Declared
// form fields win over an explicit body; string field defaults are
// substituted
func buildBody(step *api.Step, method string, vars api.Vars) any {
	if !BodyMethods.Contains(method) {
		return nil
	}

	if len(step.Fields) > 0 {
		body := make(map[string]any, len(step.Fields))
		for _, f := range step.Fields {
			if s, ok := f.Default.(string); ok {
				body[f.Name] = template.Substitute(s, vars)
				continue
			}
			body[f.Name] = f.Default
		}
		return body
	}

	if step.Body != nil {
		return template.SubstituteValue(step.Body, vars)
	}
	return nil
}

// splitRequest separates a "METHOD /endpoint" template on its first
// whitespace run, uppercasing the method
func splitRequest(request string) (string, string) {
	request = strings.TrimSpace(request)
	idx := strings.IndexFunc(request, unicode.IsSpace)
	if idx < 0 {
		return strings.ToUpper(request), ""
	}
	method := strings.ToUpper(request[:idx])
	endpoint := strings.TrimLeftFunc(request[idx:], unicode.IsSpace)
	return method, endpoint
}

// parseBody interprets a response body as JSON, normalizing anything
// unparsable to nil. A parse failure is never fatal to a step
func parseBody(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Debug("Response body is not JSON", log.Error(err))
		return nil
	}
	return v
}
