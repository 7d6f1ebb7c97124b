// Package contextkey defines typed context keys shared between middleware
// and the logger.
package contextkey

type key string

const (
	TraceID   key = "trace_id"
	RequestID key = "request_id"
)
