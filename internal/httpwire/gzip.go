package httpwire

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// AcceptsGzip reports whether the client's Accept-Encoding header
// names gzip, per spec §4.2 ("Content-encoding negotiation").
func AcceptsGzip(acceptEncoding string) bool {
	for _, enc := range strings.Split(acceptEncoding, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

// GzipBody wraps body so that reading from the result yields the
// gzip-compressed stream of the original bytes. The caller is
// responsible for advertising Content-Encoding: gzip on the response
// before invoking WriteChunked with the wrapped reader.
func GzipBody(body io.Reader) io.Reader {
	pr, pw := io.Pipe()
	gz := gzip.NewWriter(pw)
	go func() {
		_, err := io.Copy(gz, body)
		closeErr := gz.Close()
		if err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()
	return pr
}
