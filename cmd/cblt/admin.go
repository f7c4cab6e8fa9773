package main

import (
	"net/http"

	"github.com/cbltproxy/cblt/internal/adminapi"
	"github.com/cbltproxy/cblt/internal/metrics"
)

// newAdminServer binds the read-only metrics/healthz surface to addr,
// per SPEC_FULL.md §4.9: a separate, non-proxied loopback port, never
// the one the data plane listens on.
func newAdminServer(addr string, m *metrics.Metrics) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: adminapi.NewHandler(m),
	}
}
