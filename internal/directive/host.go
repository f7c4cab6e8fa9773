// Package directive walks a virtual host's directive list for one
// parsed request and produces a response, per spec §4.3 (component
// C3). It is the piece of glue that ties the pattern matcher, the
// wire codec, the file-serving adapter, and the reverse-proxy engine
// together, grounded on caddyhttp/httpserver's middleware chain.
package directive

import (
	"strings"

	"github.com/cbltproxy/cblt/internal/config"
)

// Directive is the directive-list entry type the walk consumes.
type Directive = config.Directive

// SelectHost implements spec §4.3's host-selection rule: if any
// configured key starts with "*", that entry serves every request
// (single-wildcard mode, invariant 2); otherwise an exact match on the
// Host header is required, and a miss is reported via ok=false
// (invariant 1, mapped to 403 by the caller).
func SelectHost(hosts map[string][]Directive, hostHeader string) (directives []Directive, ok bool) {
	for key, d := range hosts {
		if strings.HasPrefix(key, "*") {
			return d, true
		}
	}
	d, found := hosts[hostHeader]
	return d, found
}
