package supervisor

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cbltproxy/cblt/internal/accesslog"
	"github.com/cbltproxy/cblt/internal/directive"
	"github.com/cbltproxy/cblt/internal/httpwire"
	"github.com/cbltproxy/cblt/internal/metrics"
	"github.com/cbltproxy/cblt/internal/pipelineerr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// PortWorker owns one listening socket and serves every virtual host
// bound to it, per spec §4.5/§5. Settings are held behind an atomic
// pointer so an update is visible to new connections without a lock
// held during request processing, and in-flight connections keep
// running against the settings they started with.
type PortWorker struct {
	port        int
	listener    net.Listener
	sem         *semaphore.Weighted
	settings    atomic.Pointer[Settings]
	running     atomic.Bool
	activeConns atomic.Int64
	logger      *zap.Logger
	access      *accesslog.Logger
	metrics     *metrics.Metrics
}

// NewPortWorker constructs a worker bound to port, admitting at most
// maxConnections concurrent connections. A nil access logger falls
// back to a no-op one; a nil metrics registry disables instrumentation.
func NewPortWorker(port int, maxConnections int64, logger *zap.Logger, access *accesslog.Logger, m *metrics.Metrics) *PortWorker {
	if access == nil {
		access = accesslog.NewNop()
	}
	return &PortWorker{
		port:    port,
		sem:     semaphore.NewWeighted(maxConnections),
		logger:  logger.With(zap.Int("port", port)),
		access:  access,
		metrics: m,
	}
}

// Start opens the listening socket and begins the accept loop.
func (w *PortWorker) Start(initial *Settings) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(w.port))
	if err != nil {
		return err
	}
	w.listener = ln
	w.settings.Store(initial)
	w.running.Store(true)
	go w.acceptLoop()
	if w.metrics != nil {
		go w.metricsLoop()
	}
	return nil
}

// metricsLoop periodically sweeps this worker's current settings into
// the metrics gauges (cblt_backend_alive, cblt_backend_retries_left,
// cblt_active_connections), per SPEC_FULL.md §3/§4.9. Liveness here is
// advisory bookkeeping on top of the on-demand checks spec §9 already
// performs inline during dispatch; the sweep only publishes whatever
// state dispatch last observed, it never probes backends itself.
func (w *PortWorker) metricsLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for w.running.Load() {
		w.reportMetrics()
		<-ticker.C
	}
}

func (w *PortWorker) reportMetrics() {
	w.metrics.SetActiveConnections(strconv.Itoa(w.port), w.activeConns.Load())

	settings := w.settings.Load()
	if settings == nil {
		return
	}
	for hostKey, hd := range settings.Hosts {
		for pattern, state := range hd.ProxyStates {
			for _, backend := range state.Backends {
				w.metrics.SetBackendGauges(hostKey, pattern, backend.URL, backend.IsAlive(), backend.RetriesLeft())
			}
		}
	}
}

// UpdateSettings atomically swaps the settings new connections will
// observe; connections already accepted keep running on the old
// value (spec §5 "Settings update visibility").
func (w *PortWorker) UpdateSettings(s *Settings) {
	w.settings.Store(s)
}

// Stop closes the listening socket, ending the accept loop. It does
// not wait for in-flight connections to finish, matching the
// "graceful stop is driven by the is_running flag" design of spec §5.
func (w *PortWorker) Stop() error {
	w.running.Store(false)
	if w.listener != nil {
		return w.listener.Close()
	}
	return nil
}

func (w *PortWorker) acceptLoop() {
	for w.running.Load() {
		conn, err := w.listener.Accept()
		if err != nil {
			if w.running.Load() {
				w.logger.Warn("accept failed", zap.Error(err))
			}
			return
		}
		go w.handleConn(conn)
	}
}

func (w *PortWorker) handleConn(conn net.Conn) {
	defer conn.Close()

	if err := w.sem.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer w.sem.Release(1)

	w.activeConns.Add(1)
	defer w.activeConns.Add(-1)

	settings := w.settings.Load()
	if settings == nil {
		return
	}

	if settings.TLSConfig != nil {
		tlsConn := tls.Server(conn, settings.TLSConfig)
		if err := tlsConn.Handshake(); err != nil {
			w.logger.Debug("tls handshake failed", zap.Error(err))
			return
		}
		conn = tlsConn
	}

	clientIP := remoteIP(conn)
	reader := bufio.NewReader(conn)

	for {
		if _, err := reader.Peek(1); err != nil {
			return // connection closed with no further request
		}
		req, err := httpwire.ReadRequest(reader)
		if err != nil {
			status, _ := writeBadRequest(conn)
			w.access.LogFailure(conn.RemoteAddr().String(), status)
			return
		}
		req.RemoteAddr = conn.RemoteAddr().String()

		start := time.Now()
		hostHeader := stripPort(req.Header.Get("Host"))
		hd, ok := selectHostDetails(settings.Hosts, hostHeader)
		if !ok {
			status, _ := writeForbidden(conn)
			w.access.Log(accesslog.Request{
				RemoteAddr: req.RemoteAddr, Method: req.Method, URI: req.Target,
				Host: hostHeader, Status: status, Duration: time.Since(start),
			})
			return
		}

		status, err := directive.Walk(hd.Directives, req, clientIP, conn, reader, hd.ProxyStates)
		if err != nil {
			return
		}
		elapsed := time.Since(start)
		w.access.Log(accesslog.Request{
			RemoteAddr: req.RemoteAddr, Method: req.Method, URI: req.Target,
			Host: hostHeader, Status: status, Duration: elapsed,
		})
		if w.metrics != nil {
			w.metrics.ObserveRequest(hostHeader, req.Method, status, elapsed.Seconds())
		}

		if strings.EqualFold(req.Header.Get("Connection"), "close") {
			return
		}
		// a reverse_proxy relay runs until the client closes its side;
		// the Peek at the top of the loop then sees the close and this
		// loop returns without a response, so no special case is
		// needed for protocol upgrades here.
	}
}

func stripPort(host string) string {
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}

func remoteIP(conn net.Conn) net.IP {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

func writeForbidden(w net.Conn) (int, error) {
	resp := httpwire.NewResponse(403)
	return 403, httpwire.WriteBuffered(w, resp)
}

// writeBadRequest writes the canned 400 response spec §4.2 requires
// for a malformed request line, header block, or a request exceeding
// the header cap (httpwire.ErrBadRequest / ErrHeaderCapExceeded).
func writeBadRequest(w net.Conn) (int, error) {
	badRequest := pipelineerr.BadRequest("malformed request")
	resp := httpwire.NewResponse(badRequest.Status)
	return badRequest.Status, httpwire.WriteBuffered(w, resp)
}
