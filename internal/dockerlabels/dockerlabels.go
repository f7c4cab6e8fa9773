// Package dockerlabels implements the "--mode docker" configuration
// source of spec.md §6: it derives a DesiredState from cblt.*-prefixed
// labels on running containers instead of a Cbltfile, by querying the
// local container runtime's Engine API over its UNIX socket. No
// container-runtime SDK is available anywhere in this repository's
// dependency pack, so none is fabricated here (see DESIGN.md); a
// plain net/http client dialing the socket stands in for it.
package dockerlabels

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cbltproxy/cblt/internal/config"
	"github.com/cbltproxy/cblt/internal/reverseproxy"
)

const labelPrefix = "cblt."

// containerSummary mirrors the subset of Docker's
// /containers/json response this translator reads.
type containerSummary struct {
	Labels map[string]string `json:"Labels"`
}

// Client queries the container runtime's Engine API over a UNIX
// socket for the labels that describe this server's desired state.
type Client struct {
	http *http.Client
}

// NewClient builds a Client dialing socketPath (typically
// "/var/run/docker.sock").
func NewClient(socketPath string) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
			Timeout: 5 * time.Second,
		},
	}
}

// Fetch queries the running containers and translates their cblt.*
// labels into a DesiredState, per spec.md §6.
func (c *Client) Fetch(ctx context.Context) (config.DesiredState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://docker/containers/json", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dockerlabels: querying engine API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dockerlabels: engine API returned %d", resp.StatusCode)
	}

	var containers []containerSummary
	if err := json.NewDecoder(resp.Body).Decode(&containers); err != nil {
		return nil, fmt.Errorf("dockerlabels: decoding container list: %w", err)
	}

	state := make(config.DesiredState)
	for _, cs := range containers {
		if err := applyLabels(state, cs.Labels); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// applyLabels folds one container's cblt.* labels into state. A
// container missing cblt.host or cblt.path is skipped; it isn't one
// of ours.
func applyLabels(state config.DesiredState, labels map[string]string) error {
	host := labels[labelPrefix+"host"]
	path := labels[labelPrefix+"path"]
	if host == "" || path == "" {
		return nil
	}

	port := 80
	if p, ok := labels[labelPrefix+"port"]; ok {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("dockerlabels: invalid %sport label %q", labelPrefix, p)
		}
		port = n
	}

	certPath := labels[labelPrefix+"tls.cert"]
	keyPath := labels[labelPrefix+"tls.key"]
	if certPath != "" && labels[labelPrefix+"port"] == "" {
		port = 443
	}

	spec, ok := state[port]
	if !ok {
		spec = &config.ServerSpec{Port: port, Hosts: make(map[string][]config.Directive)}
		state[port] = spec
	}
	if certPath != "" {
		spec.CertPath = certPath
		spec.KeyPath = keyPath
	}

	directives := []config.Directive{
		config.Root{Pattern: "*", Path: path},
		config.FileServer{},
	}
	if certPath != "" {
		directives = append([]config.Directive{config.Tls{Cert: certPath, Key: keyPath}}, directives...)
	}
	if dests, ok := labels[labelPrefix+"proxy_pass"]; ok && dests != "" {
		directives = []config.Directive{
			config.ReverseProxy{
				Pattern:      "*",
				Destinations: strings.Split(dests, ","),
				Options:      lbOptionsFromLabels(labels),
			},
		}
	}

	spec.Hosts[host] = directives
	return nil
}

func lbOptionsFromLabels(labels map[string]string) reverseproxy.Options {
	opts := reverseproxy.DefaultOptions()
	if v, ok := labels[labelPrefix+"lb_retries"]; ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			opts.Retries = n
		}
	}
	if v, ok := labels[labelPrefix+"lb_interval"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			opts.IntervalSecs = uint64(d.Seconds())
		}
	}
	if v, ok := labels[labelPrefix+"lb_timeout"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			opts.TimeoutSecs = uint64(d.Seconds())
		}
	}
	if v, ok := labels[labelPrefix+"lb_policy"]; ok && v == "ip_hash" {
		opts.Policy = reverseproxy.IPHash
	}
	return opts
}
