// Package reverseproxy implements the load-balanced, liveness-tracked
// upstream dispatch described in spec §4.4 (component C4): backend
// selection, an on-demand (no background poller) alive/dead state
// machine, and a full-duplex relay that never re-encodes the byte
// stream, so protocol upgrades such as WebSocket pass through
// transparently. Grounded on caddyserver/caddy's
// caddyhttp/proxy/{upstream,policy,reverseproxy}.go.
package reverseproxy

import "time"

// Policy selects the order in which backends are tried for a request.
type Policy int

const (
	RoundRobin Policy = iota
	IPHash
)

// Options configures one ReverseProxy directive's load balancer.
// Defaults match spec §3.
type Options struct {
	Retries      uint64 // lb_retries, default 2
	IntervalSecs uint64 // lb_interval_secs, default 60
	TimeoutSecs  uint64 // lb_timeout_secs, default 1
	Policy       Policy // lb_policy, default RoundRobin
}

// DefaultOptions returns the spec §3 defaults.
func DefaultOptions() Options {
	return Options{Retries: 2, IntervalSecs: 60, TimeoutSecs: 1, Policy: RoundRobin}
}

func (o Options) interval() time.Duration { return time.Duration(o.IntervalSecs) * time.Second }
func (o Options) timeout() time.Duration  { return time.Duration(o.TimeoutSecs) * time.Second }
