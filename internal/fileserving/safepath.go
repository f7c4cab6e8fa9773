// Package fileserving adapts the FileServer directive (spec §4.3) onto
// the local filesystem: path safety, index/fallback resolution,
// content-type guessing, Range support, and gzip negotiation on top of
// the httpwire wire codec. Grounded on caddyhttp/staticfiles/fileserver.go
// and caddyhttp/httpserver/server.go's SafePath.
package fileserving

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/cbltproxy/cblt/internal/pipelineerr"
)

// SafePath joins root with the slash-separated requestPath, rejecting
// any absolute component and refusing to let ".." pop above root.
// Escaping or absolute paths return pipelineerr.ErrDirectiveNotMatched
// so the pipeline falls through to the next directive, per spec §4.3.
func SafePath(root, requestPath string) (string, error) {
	if !strings.HasPrefix(requestPath, "/") {
		return "", pipelineerr.ErrDirectiveNotMatched
	}

	depth := 0
	for _, seg := range strings.Split(requestPath, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", pipelineerr.ErrDirectiveNotMatched
			}
		default:
			depth++
		}
	}

	clean := path.Clean(requestPath)
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}
