// Package metrics exposes the process's Prometheus registry: request
// counts, request latency, and live backend counts. Grounded on
// caddyserver/caddy's internal/metrics package for label sanitization
// and on its modules/caddyhttp/metrics.go for the instrument shapes.
package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every Prometheus collector the server reports.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	BackendAlive      *prometheus.GaugeVec
	BackendRetries    *prometheus.GaugeVec
	ActiveConnections *prometheus.GaugeVec
}

// New registers a fresh set of collectors on a dedicated registry
// (not the global default, so the admin surface is self-contained).
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cblt",
			Name:      "requests_total",
			Help:      "Count of completed requests.",
		}, []string{"host", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cblt",
			Name:      "request_duration_seconds",
			Help:      "Request handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		BackendAlive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cblt",
			Name:      "backend_alive",
			Help:      "1 if a reverse_proxy backend is currently considered alive, else 0.",
		}, []string{"host", "pattern", "backend"}),
		BackendRetries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cblt",
			Name:      "backend_retries_left",
			Help:      "Remaining retry budget for a dead reverse_proxy backend.",
		}, []string{"host", "pattern", "backend"}),
		ActiveConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cblt",
			Name:      "active_connections",
			Help:      "Connections currently held open by a listening port.",
		}, []string{"port"}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.BackendAlive, m.BackendRetries, m.ActiveConnections)
	return m
}

// ObserveRequest records one completed request's outcome.
func (m *Metrics) ObserveRequest(host, method string, status int, seconds float64) {
	m.RequestsTotal.WithLabelValues(host, SanitizeMethod(method), SanitizeCode(status)).Inc()
	m.RequestDuration.WithLabelValues(host).Observe(seconds)
}

// SetBackendGauges records one backend's current liveness and retry
// budget in cblt_backend_alive and cblt_backend_retries_left. It is
// called for every backend by the port worker's periodic metrics sweep
// (internal/supervisor); no State is registered with this package.
func (m *Metrics) SetBackendGauges(host, pattern, backend string, alive bool, retriesLeft uint64) {
	aliveValue := 0.0
	if alive {
		aliveValue = 1.0
	}
	m.BackendAlive.WithLabelValues(host, pattern, backend).Set(aliveValue)
	m.BackendRetries.WithLabelValues(host, pattern, backend).Set(float64(retriesLeft))
}

// SetActiveConnections records how many connections a listening port
// currently holds open, per SPEC_FULL.md §4.9's cblt_active_connections{port}.
func (m *Metrics) SetActiveConnections(port string, n int64) {
	m.ActiveConnections.WithLabelValues(port).Set(float64(n))
}

// SanitizeCode collapses the zero-value (request never completed) onto
// 200 and otherwise passes the status through, to keep label
// cardinality bounded, per caddy's internal/metrics.SanitizeCode.
func SanitizeCode(s int) string {
	switch s {
	case 0, 200:
		return "200"
	default:
		return strconv.Itoa(s)
	}
}

var methodMap = map[string]string{
	"GET": http.MethodGet, "HEAD": http.MethodHead, "PUT": http.MethodPut,
	"POST": http.MethodPost, "DELETE": http.MethodDelete, "CONNECT": http.MethodConnect,
	"OPTIONS": http.MethodOptions, "TRACE": http.MethodTrace, "PATCH": http.MethodPatch,
}

// SanitizeMethod upper-cases and restricts to the known HTTP methods,
// so an arbitrary client-supplied verb can't blow up label cardinality.
func SanitizeMethod(m string) string {
	if v, ok := methodMap[strings.ToUpper(m)]; ok {
		return v
	}
	return "OTHER"
}
