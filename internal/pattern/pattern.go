// Package pattern implements the glob-style path matcher used to decide
// whether a directive applies to a given request path.
package pattern

import "strings"

// Match reports whether path matches pattern under the three rules:
//
//  1. "*" matches everything.
//  2. A pattern ending in "*" matches any path sharing its prefix
//     (the pattern minus the trailing star).
//  3. Otherwise the pattern must equal path exactly.
//
// There is no middle-wildcard or regex support. Match is pure and safe
// for concurrent use.
func Match(pattern, path string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, pattern[:len(pattern)-1])
	}
	return pattern == path
}
