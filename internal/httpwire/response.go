package httpwire

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/net/http/httpguts"
)

// Response is a status line plus headers, written either in one shot
// (WriteBuffered) or as a chunked, streamed body (WriteChunked).
type Response struct {
	Status int
	Header Header
	Body   []byte // used only by WriteBuffered
}

// NewResponse allocates a Response with an empty header map.
func NewResponse(status int) *Response {
	return &Response{Status: status, Header: make(Header)}
}

func statusLine(status int) string {
	text := http.StatusText(status)
	if text == "" {
		text = "Status"
	}
	return fmt.Sprintf("HTTP/1.1 %d %s\r\n", status, text)
}

// validateHeader rejects header values carrying control characters
// before they reach the wire, the same check net/http performs via
// httpguts internally before handing a response to its own writer.
func validateHeader(h Header) error {
	for name, values := range h {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("httpwire: invalid header name %q", name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("httpwire: invalid value for header %q", name)
			}
		}
	}
	return nil
}

func writeHeaderBlock(buf *bytes.Buffer, status int, h Header) {
	buf.WriteString(statusLine(status))
	for name, values := range h {
		for _, v := range values {
			buf.WriteString(name)
			buf.WriteString(": ")
			buf.WriteString(v)
			buf.WriteString("\r\n")
		}
	}
	buf.WriteString("\r\n")
}

// WriteBuffered serializes status line, headers, blank line, and body
// as a single write_all. Used for short or precomputed bodies:
// redirects, error pages, proxy responses whose body was already read.
func WriteBuffered(w io.Writer, resp *Response) error {
	var buf bytes.Buffer
	h := resp.Header
	if h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}
	if err := validateHeader(h); err != nil {
		return err
	}
	writeHeaderBlock(&buf, resp.Status, h)
	buf.Write(resp.Body)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteHead writes only the status line and headers (the caller is
// responsible for Content-Length and for streaming the body directly
// to w afterward). Used when the body is too large to buffer but its
// length is already known, e.g. a static file served without gzip.
func WriteHead(w io.Writer, resp *Response) error {
	if err := validateHeader(resp.Header); err != nil {
		return err
	}
	var buf bytes.Buffer
	writeHeaderBlock(&buf, resp.Status, resp.Header)
	_, err := w.Write(buf.Bytes())
	return err
}

// chunkSize is the fixed size of each chunk written by WriteChunked.
const chunkSize = 32 * 1024

// WriteChunked flushes the status line and headers (advertising
// Transfer-Encoding: chunked) first, then drains body in fixed-size
// chunks, each prefixed with its hex length and CRLF-terminated. A
// zero-length chunk closes the body, per spec §4.2.
func WriteChunked(w io.Writer, resp *Response, body io.Reader) error {
	h := resp.Header
	h.Del("Content-Length")
	h.Set("Transfer-Encoding", "chunked")
	if err := validateHeader(h); err != nil {
		return err
	}

	var head bytes.Buffer
	writeHeaderBlock(&head, resp.Status, h)
	if _, err := w.Write(head.Bytes()); err != nil {
		return err
	}
	if f, ok := w.(*bufio.Writer); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if werr := writeChunk(w, buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	_, err := w.Write([]byte("0\r\n\r\n"))
	return err
}

func writeChunk(w io.Writer, b []byte) error {
	if _, err := fmt.Fprintf(w, "%x\r\n", len(b)); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.Write([]byte("\r\n"))
	return err
}
