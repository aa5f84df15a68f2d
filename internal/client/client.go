// Package client supplies the injectable network capability the engine
// performs requests through.
package client

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/showkit/showrunner/pkg/log"
)

type (
	// Caller performs one HTTP exchange. Implementations return an error
	// only for transport-level failures; response status codes are data
	// for the engine's save mappings and poll conditions
	Caller interface {
		Call(
			ctx context.Context, method, url string,
			headers map[string]string, body []byte,
		) (*Response, error)
	}

	// Response is the raw outcome of a call before the engine parses it
	Response struct {
		Status int
		Body   []byte
	}

	// HTTPCaller is the default Caller backed by net/http
	HTTPCaller struct {
		httpClient *http.Client
	}
)

var _ Caller = (*HTTPCaller)(nil)

// NewHTTPCaller creates a caller with the given request timeout
func NewHTTPCaller(timeout time.Duration) *HTTPCaller {
	return &HTTPCaller{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPCaller) Call(
	ctx context.Context, method, url string,
	headers map[string]string, body []byte,
) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		slog.Error("Failed to create HTTP request",
			slog.String("method", method),
			slog.String("url", url),
			log.Error(err))
		return nil, err
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	dur := time.Since(start)

	if err != nil {
		slog.Error("HTTP request failed",
			slog.String("method", method),
			slog.String("url", url),
			slog.Duration("duration", dur),
			log.Error(err))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Failed to read response body",
			slog.String("method", method),
			slog.String("url", url),
			log.Error(err))
		return nil, err
	}

	return &Response{
		Status: resp.StatusCode,
		Body:   respBody,
	}, nil
}
