package supervisor

import (
	"fmt"
	"strings"

	"github.com/aryann/difflib"
	"github.com/cbltproxy/cblt/internal/config"
	"go.uber.org/zap"
)

// logHostDiffs renders each host's old and new directive list as lines
// and logs a unified diff for any host whose list changed, per
// SPEC_FULL.md §4.5a. This is pure operator visibility: it never
// gates or alters the settings swap it's called alongside.
func logHostDiffs(logger *zap.Logger, port int, old, fresh *Settings) {
	if old == nil {
		return
	}
	for hostKey, newHost := range fresh.Hosts {
		oldHost, existed := old.Hosts[hostKey]
		if existed && directivesEqual(oldHost.Directives, newHost.Directives) {
			continue
		}

		before := renderDirectives(oldHost.Directives)
		after := renderDirectives(newHost.Directives)
		delta := difflib.Diff(before, after)

		var changed bool
		var b strings.Builder
		for _, d := range delta {
			switch d.Delta {
			case difflib.LeftOnly:
				changed = true
				fmt.Fprintf(&b, "- %s\n", d.Payload)
			case difflib.RightOnly:
				changed = true
				fmt.Fprintf(&b, "+ %s\n", d.Payload)
			}
		}
		if changed {
			logger.Info("host configuration changed",
				zap.Int("port", port), zap.String("host", hostKey), zap.String("diff", b.String()))
		}
	}
}

func directivesEqual(a, b []config.Directive) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if fmt.Sprintf("%#v", a[i]) != fmt.Sprintf("%#v", b[i]) {
			return false
		}
	}
	return true
}

func renderDirectives(directives []config.Directive) []string {
	lines := make([]string, len(directives))
	for i, d := range directives {
		lines[i] = fmt.Sprintf("%#v", d)
	}
	return lines
}
