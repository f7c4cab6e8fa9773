package httpwire

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// SerializeRequest renders req back to wire form from its parsed
// fields, so it can be written directly to an upstream socket: the
// request line as received, every header value, and the body, with no
// header added or dropped and no re-encoding through a typed HTTP
// client, which is what keeps protocol upgrades (WebSocket)
// transparent. It is not a byte-for-byte copy of what the client sent:
// header names come out in canonical form, and the order of distinct
// header fields follows map iteration, not the original order.
func SerializeRequest(req *Request) []byte {
	var buf bytes.Buffer
	buf.WriteString(req.RawRequestLine())
	buf.WriteString("\r\n")
	for name, values := range req.Header {
		for _, v := range values {
			buf.WriteString(name)
			buf.WriteString(": ")
			buf.WriteString(v)
			buf.WriteString("\r\n")
		}
	}
	buf.WriteString("\r\n")
	buf.Write(req.Body)
	return buf.Bytes()
}

// ReadResponseHead reads an upstream's status line and headers up to
// (and including) the terminating blank line, returning the parsed
// status code alongside the head's bytes so they can be forwarded to
// the client (spec §4.4 "Relay"). Each line is passed on unchanged
// except that its terminator is always written as CRLF.
func ReadResponseHead(r *bufio.Reader) (status int, raw []byte, err error) {
	var buf bytes.Buffer

	statusLine, err := readCRLFLine(r)
	if err != nil {
		return 0, nil, ErrBadRequest
	}
	buf.WriteString(statusLine)
	buf.WriteString("\r\n")

	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return 0, nil, ErrBadRequest
	}
	status, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, nil, ErrBadRequest
	}

	for {
		line, err := readCRLFLine(r)
		if err != nil {
			return 0, nil, ErrBadRequest
		}
		buf.WriteString(line)
		buf.WriteString("\r\n")
		if line == "" {
			break
		}
	}
	return status, buf.Bytes(), nil
}
