// Package pipelineerr defines the small error taxonomy shared by the
// directive pipeline, the file-serving adapter, and the reverse-proxy
// engine, so each can signal outcomes the others (and the access log)
// understand without importing each other. See spec §7.
package pipelineerr

import "errors"

// ErrDirectiveNotMatched is not a failure: it tells the pipeline walk
// to continue to the next directive rather than terminate.
var ErrDirectiveNotMatched = errors.New("pipelineerr: directive not matched")

// StatusError terminates the walk with the given HTTP status.
type StatusError struct {
	Status int
	Msg    string
}

func (e *StatusError) Error() string { return e.Msg }

// New constructs a StatusError.
func New(status int, msg string) *StatusError {
	return &StatusError{Status: status, Msg: msg}
}

// Common constructors matching spec §7's taxonomy.
func BadRequest(msg string) *StatusError          { return New(400, msg) }
func Forbidden(msg string) *StatusError           { return New(403, msg) }
func NotFound(msg string) *StatusError            { return New(404, msg) }
func RangeNotSatisfiable(msg string) *StatusError { return New(416, msg) }
func UpstreamUnavailable(msg string) *StatusError { return New(502, msg) }
func UpstreamStatus(status int) *StatusError      { return New(status, "upstream status") }
func InternalError(msg string) *StatusError        { return New(500, msg) }
