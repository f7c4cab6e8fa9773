package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cbltproxy/cblt/internal/reverseproxy"
)

// Parse reads a Cbltfile from r and produces the DesiredState it
// describes, enforcing the semantic rules of spec §6: duplicate host
// keys fail, an empty host fails, an unknown directive fails, and a
// host carrying a tls directive defaults to port 443 (else 80) unless
// "host:port" overrides it explicitly.
func Parse(r io.Reader) (DesiredState, error) {
	tokens, err := lex(r)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	d := newDispenser(tokens)
	state := make(DesiredState)
	seen := make(map[string]bool) // "port/host" pairs already declared

	for d.next() {
		hostTok := d.val()
		if hostTok == "" {
			return nil, fmt.Errorf("config: line %d: empty host", d.line())
		}
		hostPart, explicitPort, hasPort := splitHostPort(hostTok)
		if hostPart == "" {
			return nil, fmt.Errorf("config: line %d: empty host", d.line())
		}

		if !d.nextBlock() {
			return nil, fmt.Errorf("config: line %d: expected '{' after host %q", d.line(), hostTok)
		}

		directives, certPath, keyPath, err := parseBlock(d)
		if err != nil {
			return nil, err
		}

		port := 80
		if hasTls(directives) {
			port = 443
		}
		if hasPort {
			port = explicitPort
		}

		key := fmt.Sprintf("%d/%s", port, hostPart)
		if seen[key] {
			return nil, fmt.Errorf("config: duplicate host %q on port %d", hostPart, port)
		}
		seen[key] = true

		spec, ok := state[port]
		if !ok {
			spec = &ServerSpec{Port: port, Hosts: make(map[string][]Directive)}
			state[port] = spec
		}
		spec.Hosts[hostPart] = directives
		if certPath != "" {
			spec.CertPath = certPath
			spec.KeyPath = keyPath
		}
	}

	return state, nil
}

func hasTls(directives []Directive) bool {
	for _, dir := range directives {
		if _, ok := dir.(Tls); ok {
			return true
		}
	}
	return false
}

// splitHostPort splits "host" or "host:port" without requiring the
// port to be numeric-validated by net.SplitHostPort, since a bare
// "example.com" (no colon at all) is the common case.
func splitHostPort(s string) (host string, port int, hasPort bool) {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return s, 0, false
	}
	p, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], p, true
}

func parseBlock(d *dispenser) (directives []Directive, certPath, keyPath string, err error) {
	for d.next() {
		if d.val() == "}" {
			return directives, certPath, keyPath, nil
		}
		switch d.val() {
		case "root":
			args := readArgs(d)
			if len(args) < 2 {
				return nil, "", "", fmt.Errorf("config: line %d: root requires pattern and path", d.line())
			}
			root := Root{Pattern: args[0], Path: args[1]}
			if len(args) > 2 {
				root.Fallback = args[2]
			}
			directives = append(directives, root)

		case "file_server":
			readArgs(d) // no arguments expected; discard stray ones
			directives = append(directives, FileServer{})

		case "reverse_proxy":
			args := readArgs(d)
			if len(args) < 2 {
				return nil, "", "", fmt.Errorf("config: line %d: reverse_proxy requires pattern and at least one destination", d.line())
			}
			rp := ReverseProxy{Pattern: args[0], Destinations: args[1:], Options: reverseproxy.DefaultOptions()}
			if d.nextBlock() {
				if err := parseReverseProxyOptions(d, &rp.Options); err != nil {
					return nil, "", "", err
				}
			}
			directives = append(directives, rp)

		case "redir":
			args := readArgs(d)
			if len(args) < 1 {
				return nil, "", "", fmt.Errorf("config: line %d: redir requires a destination", d.line())
			}
			directives = append(directives, Redir{Destination: args[0]})

		case "redirifnotcookie":
			args := readArgs(d)
			if len(args) < 2 {
				return nil, "", "", fmt.Errorf("config: line %d: redirifnotcookie requires a cookie name and destination", d.line())
			}
			directives = append(directives, RedirIfNotCookie{CookieName: args[0], Destination: args[1]})

		case "tls":
			args := readArgs(d)
			if len(args) < 2 {
				return nil, "", "", fmt.Errorf("config: line %d: tls requires a cert path and key path", d.line())
			}
			certPath, keyPath = args[0], args[1]
			directives = append(directives, Tls{Cert: args[0], Key: args[1]})

		default:
			return nil, "", "", fmt.Errorf("config: line %d: unknown directive %q", d.line(), d.val())
		}
	}
	return nil, "", "", fmt.Errorf("config: unexpected end of file inside host block")
}

func readArgs(d *dispenser) []string {
	var args []string
	for d.nextArg() {
		args = append(args, d.val())
	}
	return args
}

func parseReverseProxyOptions(d *dispenser, opts *reverseproxy.Options) error {
	for d.next() {
		if d.val() == "}" {
			return nil
		}
		switch d.val() {
		case "lb_retries":
			args := readArgs(d)
			if len(args) != 1 {
				return fmt.Errorf("config: line %d: lb_retries requires one value", d.line())
			}
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("config: line %d: invalid lb_retries: %w", d.line(), err)
			}
			opts.Retries = n

		case "lb_interval":
			secs, err := readDurationSeconds(d)
			if err != nil {
				return err
			}
			opts.IntervalSecs = secs

		case "lb_timeout":
			secs, err := readDurationSeconds(d)
			if err != nil {
				return err
			}
			opts.TimeoutSecs = secs

		case "lb_policy":
			args := readArgs(d)
			if len(args) != 1 {
				return fmt.Errorf("config: line %d: lb_policy requires one value", d.line())
			}
			switch args[0] {
			case "round_robin":
				opts.Policy = reverseproxy.RoundRobin
			case "ip_hash":
				opts.Policy = reverseproxy.IPHash
			default:
				return fmt.Errorf("config: line %d: unknown lb_policy %q", d.line(), args[0])
			}

		default:
			return fmt.Errorf("config: line %d: unknown reverse_proxy option %q", d.line(), d.val())
		}
	}
	return fmt.Errorf("config: unexpected end of file inside reverse_proxy block")
}

func readDurationSeconds(d *dispenser) (uint64, error) {
	args := readArgs(d)
	if len(args) != 1 {
		return 0, fmt.Errorf("config: line %d: expected one duration value", d.line())
	}
	dur, err := time.ParseDuration(args[0])
	if err != nil {
		return 0, fmt.Errorf("config: line %d: invalid duration %q: %w", d.line(), args[0], err)
	}
	return uint64(dur.Seconds()), nil
}
