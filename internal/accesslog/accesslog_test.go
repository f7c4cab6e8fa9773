package accesslog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	l := New(Options{Path: path, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1})

	l.Log(Request{RemoteAddr: "127.0.0.1:1234", Method: "GET", URI: "/foo", Host: "example.com", Status: 200})
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"method":"GET"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"host":"example.com"`)
}

func TestNopDoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Log(Request{Method: "GET"})
	l.LogFailure("127.0.0.1:1", 400)
	assert.NoError(t, l.Sync())
}
