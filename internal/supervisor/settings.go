// Package supervisor owns one listening socket per port, the C5
// component of spec §4.5/§4.6. It accepts connections, optionally
// performs the TLS handshake, admits them through a counting
// semaphore, hands each to the directive pipeline, and hot-swaps its
// settings when a new DesiredState arrives without dropping
// in-flight connections. Grounded on caddyhttp/httpserver's listener
// lifecycle and caddy.go's graceful-reload bookkeeping.
package supervisor

import (
	"crypto/tls"
	"time"

	"github.com/cbltproxy/cblt/internal/config"
	"github.com/cbltproxy/cblt/internal/reverseproxy"
)

// HostDetails is one virtual host's directive list plus the live
// ReverseProxyState for each of its ReverseProxy directives, keyed by
// pattern (spec §3's PortWorker settings).
type HostDetails struct {
	Directives  []config.Directive
	ProxyStates map[string]*reverseproxy.State
}

// Settings is a PortWorker's full, atomically-swapped configuration.
type Settings struct {
	Hosts     map[string]HostDetails
	TLSConfig *tls.Config
}

// buildSettings turns one ServerSpec into Settings, carrying over
// ReverseProxyState from the previous generation (old may be nil) so
// backend liveness survives a reload, per spec §4.5 "Update".
func buildSettings(old *Settings, spec *config.ServerSpec, now time.Time) (*Settings, error) {
	hosts := make(map[string]HostDetails, len(spec.Hosts))
	for hostKey, directives := range spec.Hosts {
		var oldStates map[string]*reverseproxy.State
		if old != nil {
			if oldHost, ok := old.Hosts[hostKey]; ok {
				oldStates = oldHost.ProxyStates
			}
		}

		states := make(map[string]*reverseproxy.State)
		for _, d := range directives {
			rp, ok := d.(config.ReverseProxy)
			if !ok {
				continue
			}
			states[rp.Pattern] = reverseproxy.CarryOver(oldStates[rp.Pattern], rp.Destinations, rp.Options, now)
		}

		hosts[hostKey] = HostDetails{Directives: directives, ProxyStates: states}
	}

	settings := &Settings{Hosts: hosts}
	if spec.CertPath != "" {
		cert, err := tls.LoadX509KeyPair(spec.CertPath, spec.KeyPath)
		if err != nil {
			return nil, err
		}
		settings.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	}
	return settings, nil
}

// selectHostDetails mirrors directive.SelectHost's rule (a "*" key
// serves every request; otherwise an exact Host match is required),
// returning the matching HostDetails directly so its ProxyStates are
// available to the caller alongside the directive list.
func selectHostDetails(hosts map[string]HostDetails, hostHeader string) (HostDetails, bool) {
	for key, hd := range hosts {
		if len(key) > 0 && key[0] == '*' {
			return hd, true
		}
	}
	hd, ok := hosts[hostHeader]
	return hd, ok
}
