package httpwire

import "errors"

// Sentinel errors surfaced by the wire codec. Their callers map them to
// canned responses (the port worker in internal/supervisor answers a
// failed ReadRequest with 400; internal/fileserving turns
// ErrRangeNotSatisfiable into 416); see spec §7.
var (
	// ErrBadRequest is returned for any malformed request line, header
	// block, or body framing.
	ErrBadRequest = errors.New("httpwire: malformed request")

	// ErrHeaderCapExceeded is returned when a request carries more than
	// the configured maximum number of header lines.
	ErrHeaderCapExceeded = errors.New("httpwire: too many headers")

	// ErrRangeNotSatisfiable is returned by ParseRange when the
	// requested range falls outside the resource.
	ErrRangeNotSatisfiable = errors.New("httpwire: range not satisfiable")
)
