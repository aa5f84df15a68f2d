// Package clienttest provides a scripted Caller implementation for tests.
package clienttest

import (
	"context"
	"sync"

	"github.com/showkit/showrunner/internal/client"
)

type (
	// Outcome is one scripted call result
	Outcome struct {
		Response *client.Response
		Err      error
	}

	// Call records one request the caller received
	Call struct {
		Method  string
		URL     string
		Headers map[string]string
		Body    []byte
	}

	// Caller replays a script of outcomes in order, repeating the last
	// one once the script is exhausted, and records every call it
	// receives
	Caller struct {
		mu     sync.Mutex
		script []Outcome
		next   int
		calls  []Call
	}
)

// New creates a scripted caller
func New(script ...Outcome) *Caller {
	return &Caller{script: script}
}

// JSON builds a successful outcome with the given status and raw body
func JSON(status int, body string) Outcome {
	return Outcome{
		Response: &client.Response{
			Status: status,
			Body:   []byte(body),
		},
	}
}

// Fail builds a transport-failure outcome
func Fail(err error) Outcome {
	return Outcome{Err: err}
}

func (c *Caller) Call(
	_ context.Context, method, url string,
	headers map[string]string, body []byte,
) (*client.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	c.calls = append(c.calls, Call{
		Method:  method,
		URL:     url,
		Headers: h,
		Body:    body,
	})

	if len(c.script) == 0 {
		return &client.Response{Status: 200}, nil
	}
	out := c.script[min(c.next, len(c.script)-1)]
	c.next++
	if out.Err != nil {
		return nil, out.Err
	}
	return out.Response, nil
}

// Calls returns a copy of the recorded calls
func (c *Caller) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]Call, len(c.calls))
	copy(res, c.calls)
	return res
}

// CallCount returns how many calls the caller has received
func (c *Caller) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}
