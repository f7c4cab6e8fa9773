package supervisor

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/cbltproxy/cblt/internal/config"
	"github.com/cbltproxy/cblt/internal/metrics"
	"github.com/cbltproxy/cblt/internal/reverseproxy"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func staticSiteState(t *testing.T, port int) config.DesiredState {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("HELLO"), 0o644))
	return config.DesiredState{
		port: {
			Port: port,
			Hosts: map[string][]config.Directive{
				"*": {
					config.Root{Pattern: "*", Path: dir},
					config.FileServer{},
				},
			},
		},
	}
}

func getOverTCP(t *testing.T, port int) string {
	t.Helper()
	var conn net.Conn
	var err error
	for i := 0; i < 20; i++ {
		conn, err = net.DialTimeout("tcp", "127.0.0.1"+portSuffix(port), 200*time.Millisecond)
		if err == nil {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)
	data, _ := io.ReadAll(conn)
	return string(data)
}

func portSuffix(port int) string {
	return ":" + strconv.Itoa(port)
}

func TestSupervisorStartsAndServes(t *testing.T) {
	port := freePort(t)
	s := New(100, zap.NewNop(), nil, nil)
	require.NoError(t, s.Reconfigure(staticSiteState(t, port)))
	defer s.StopAll()

	out := getOverTCP(t, port)
	assert.Contains(t, out, "HELLO")
}

func TestSupervisorRespondsBadRequestToMalformedRequest(t *testing.T) {
	port := freePort(t)
	s := New(100, zap.NewNop(), nil, nil)
	require.NoError(t, s.Reconfigure(staticSiteState(t, port)))
	defer s.StopAll()

	var conn net.Conn
	var err error
	for i := 0; i < 20; i++ {
		conn, err = net.DialTimeout("tcp", "127.0.0.1"+portSuffix(port), 200*time.Millisecond)
		if err == nil {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not a request\r\n\r\n"))
	require.NoError(t, err)
	data, _ := io.ReadAll(conn)
	assert.Contains(t, string(data), "HTTP/1.1 400")
}

func TestSupervisorReportsBackendAndConnectionGauges(t *testing.T) {
	port := freePort(t)
	m := metrics.New()
	s := New(100, zap.NewNop(), nil, m)
	desired := config.DesiredState{
		port: {
			Port: port,
			Hosts: map[string][]config.Directive{
				"*": {
					config.ReverseProxy{
						Pattern:      "*",
						Destinations: []string{"127.0.0.1:9001"},
						Options:      reverseproxy.DefaultOptions(),
					},
				},
			},
		},
	}
	require.NoError(t, s.Reconfigure(desired))
	defer s.StopAll()

	s.mu.Lock()
	worker := s.workers[port]
	s.mu.Unlock()
	require.NotNil(t, worker)
	worker.reportMetrics()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.BackendAlive.WithLabelValues("*", "*", "127.0.0.1:9001")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ActiveConnections.WithLabelValues(strconv.Itoa(port))))
}

func TestSupervisorStopsRemovedPort(t *testing.T) {
	port := freePort(t)
	s := New(100, zap.NewNop(), nil, nil)
	require.NoError(t, s.Reconfigure(staticSiteState(t, port)))

	require.NoError(t, s.Reconfigure(config.DesiredState{}))

	_, err := net.DialTimeout("tcp", "127.0.0.1"+portSuffix(port), 200*time.Millisecond)
	assert.Error(t, err, "worker for the removed port must stop listening")
}
