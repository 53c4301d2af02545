package metrics

import (
	"time"
)

// HTTPMetrics records HTTP adapter traffic.
type HTTPMetrics interface {
	// RecordRequest records a finished HTTP request.
	//
	// Parameters:
	//   - route: route pattern (e.g. "zip", "file")
	//   - status: response status code
	//   - duration: time until the response was fully written
	//   - bytes: response body bytes written
	RecordRequest(route string, status int, duration time.Duration, bytes int64)

	// RecordRequestStart increments the in-flight gauge for route.
	RecordRequestStart(route string)

	// RecordRequestEnd decrements the in-flight gauge for route.
	RecordRequestEnd(route string)
}

// NewNoopHTTPMetrics returns an HTTPMetrics that does nothing.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(route string, status int, duration time.Duration, bytes int64) {}
func (noopHTTPMetrics) RecordRequestStart(route string)                                             {}
func (noopHTTPMetrics) RecordRequestEnd(route string)                                               {}
