package fileserving

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbltproxy/cblt/internal/httpwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, rawHeadLines string) *httpwire.Request {
	t.Helper()
	raw := rawHeadLines + "\r\n\r\n"
	req, err := httpwire.ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	return req
}

func TestServeStaticFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("HELLO"), 0o644))

	req := newRequest(t, "GET / HTTP/1.1\r\nHost: example.com")
	var buf bytes.Buffer
	status, err := Serve(&buf, req, dir, "")
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Contains(t, buf.String(), "HELLO")
	assert.Contains(t, buf.String(), "Content-Length: 5")
}

func TestServeFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fallback.html"), []byte("FB"), 0o644))

	req := newRequest(t, "GET /missing.html HTTP/1.1\r\nHost: example.com")
	var buf bytes.Buffer
	status, err := Serve(&buf, req, dir, "fallback.html")
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Contains(t, buf.String(), "FB")
}

func TestServeNotFound(t *testing.T) {
	dir := t.TempDir()

	req := newRequest(t, "GET /missing.html HTTP/1.1\r\nHost: example.com")
	var buf bytes.Buffer
	_, err := Serve(&buf, req, dir, "")
	assert.Error(t, err)
}

func TestServeRange(t *testing.T) {
	dir := t.TempDir()
	body := make([]byte, 100)
	for i := range body {
		body[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.bin"), body, 0o644))

	req := newRequest(t, "GET /file.bin HTTP/1.1\r\nHost: example.com\r\nRange: bytes=10-19")
	var buf bytes.Buffer
	status, err := Serve(&buf, req, dir, "")
	require.NoError(t, err)
	assert.Equal(t, 206, status)
	out := buf.String()
	assert.Contains(t, out, "Content-Range: bytes 10-19/100")
	assert.Contains(t, out, "Content-Length: 10")
	assert.True(t, strings.HasSuffix(out, string(body[10:20])))
}

func TestServeRangeUnsatisfiable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.bin"), make([]byte, 10), 0o644))

	req := newRequest(t, "GET /file.bin HTTP/1.1\r\nHost: example.com\r\nRange: bytes=-0")
	var buf bytes.Buffer
	_, err := Serve(&buf, req, dir, "")
	assert.Error(t, err)
}

func TestServeGzip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0o644))

	req := newRequest(t, "GET /a.txt HTTP/1.1\r\nHost: example.com\r\nAccept-Encoding: gzip")
	var buf bytes.Buffer
	status, err := Serve(&buf, req, dir, "")
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Contains(t, buf.String(), "Content-Encoding: gzip")
	assert.Contains(t, buf.String(), "Transfer-Encoding: chunked")
}
