// Package showrunner is a demo playback engine for REST APIs. Demos are
// sequences of declarative steps; each step performs an HTTP request,
// binds values extracted from the response into a shared variable store,
// and may wait on an asynchronous condition by polling.
package showrunner

const (
	Name    = "showrunner"
	Version = "0.3.0"
)
