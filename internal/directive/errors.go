package directive

import (
	"errors"
	"io"

	"github.com/cbltproxy/cblt/internal/httpwire"
	"github.com/cbltproxy/cblt/internal/pipelineerr"
)

// writeStatus builds the canned status-only response of spec §7's
// error taxonomy (empty body, just a status line) and writes it to w.
func writeStatus(w io.Writer, status int) (int, error) {
	resp := httpwire.NewResponse(status)
	if err := httpwire.WriteBuffered(w, resp); err != nil {
		return status, err
	}
	return status, nil
}

// terminate converts a directive error into the response it maps to,
// per spec §7's propagation policy: ErrDirectiveNotMatched is handled
// by the caller before this is reached; anything else is terminal.
func terminate(w io.Writer, err error) (int, error) {
	var se *pipelineerr.StatusError
	if errors.As(err, &se) {
		return writeStatus(w, se.Status)
	}
	return writeStatus(w, 500)
}
