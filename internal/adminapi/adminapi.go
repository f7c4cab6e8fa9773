// Package adminapi exposes the operational surface that sits beside
// the data plane: Prometheus scraping and a liveness probe. It is
// deliberately separate from the per-port data-plane listeners of
// internal/supervisor. Grounded on caddyserver/caddy's admin.go (a
// small, separately-bound HTTP surface for operational endpoints),
// routed with go-chi/chi, a direct dependency of caddy's own go.mod.
package adminapi

import (
	"net/http"

	"github.com/cbltproxy/cblt/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler builds the admin mux: "/metrics" for Prometheus scraping
// and "/healthz" as a liveness probe.
func NewHandler(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
