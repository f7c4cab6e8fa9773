package httpwire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBufferedSetsContentLength(t *testing.T) {
	resp := NewResponse(200)
	resp.Body = []byte("hello")
	var buf bytes.Buffer
	require.NoError(t, WriteBuffered(&buf, resp))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out, "Content-Length: 5\r\n")
	assert.True(t, strings.HasSuffix(out, "hello"))
}

func TestWriteBufferedRejectsInvalidHeaderValue(t *testing.T) {
	resp := NewResponse(200)
	resp.Header.Set("X-Bad", "line1\r\nline2")
	var buf bytes.Buffer
	assert.Error(t, WriteBuffered(&buf, resp))
}

func TestWriteChunkedFramesBody(t *testing.T) {
	resp := NewResponse(200)
	var buf bytes.Buffer
	require.NoError(t, WriteChunked(&buf, resp, strings.NewReader("hi")))

	out := buf.String()
	assert.Contains(t, out, "Transfer-Encoding: chunked\r\n")
	assert.Contains(t, out, "2\r\nhi\r\n")
	assert.True(t, strings.HasSuffix(out, "0\r\n\r\n"))
}

func TestWriteHeadOmitsBody(t *testing.T) {
	resp := NewResponse(206)
	resp.Header.Set("Content-Range", "bytes 0-4/10")
	resp.Body = []byte("payload")
	var buf bytes.Buffer
	require.NoError(t, WriteHead(&buf, resp))
	assert.Contains(t, buf.String(), "HTTP/1.1 206 Partial Content\r\n")
	assert.NotContains(t, buf.String(), "payload")
}
