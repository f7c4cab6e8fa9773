// Package config loads the declarative Cbltfile format into the
// in-memory DesiredState the supervisor consumes, per spec §6. The
// lexer and dispenser are adapted from caddyfile/lexer.go and
// caddyconfig/caddyfile/dispenser.go, generalized to this grammar.
package config

import "github.com/cbltproxy/cblt/internal/reverseproxy"

// Directive is the tagged-variant directive list entry of spec §3.
// Each concrete type below is a variant.
type Directive interface {
	isDirective()
}

// Root sets the filesystem base for later FileServer entries when
// Pattern matches the request path.
type Root struct {
	Pattern  string
	Path     string
	Fallback string // empty when absent
}

// FileServer serves from the most recently matching Root.
type FileServer struct{}

// ReverseProxy relays to one of Destinations when Pattern matches.
type ReverseProxy struct {
	Pattern      string
	Destinations []string
	Options      reverseproxy.Options
}

// Redir issues a 302 to Destination, substituting "{uri}".
type Redir struct {
	Destination string
}

// RedirIfNotCookie is a Redir gated on the absence of a named cookie.
type RedirIfNotCookie struct {
	CookieName  string
	Destination string
}

// Tls is pure metadata consumed by the port worker.
type Tls struct {
	Cert string
	Key  string
}

func (Root) isDirective()             {}
func (FileServer) isDirective()       {}
func (ReverseProxy) isDirective()     {}
func (Redir) isDirective()            {}
func (RedirIfNotCookie) isDirective() {}
func (Tls) isDirective()              {}

// ServerSpec is one port's configuration: every virtual host declared
// to listen on it, keyed by host (or "*" for the catch-all).
type ServerSpec struct {
	Port     int
	Hosts    map[string][]Directive
	CertPath string
	KeyPath  string
}

// DesiredState is the full configuration the loader hands to the
// supervisor: one ServerSpec per port.
type DesiredState map[int]*ServerSpec
