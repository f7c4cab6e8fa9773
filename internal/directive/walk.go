package directive

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/cbltproxy/cblt/internal/config"
	"github.com/cbltproxy/cblt/internal/fileserving"
	"github.com/cbltproxy/cblt/internal/httpwire"
	"github.com/cbltproxy/cblt/internal/pattern"
	"github.com/cbltproxy/cblt/internal/pipelineerr"
	"github.com/cbltproxy/cblt/internal/reverseproxy"
)

// Walk evaluates directives in declaration order for req, writing the
// resulting response to conn, per spec §4.3. proxyStates holds the
// live ReverseProxyState for every ReverseProxy directive in this
// host, keyed by its pattern; it is owned by the caller so liveness
// tracking survives across requests.
func Walk(
	directives []Directive,
	req *httpwire.Request,
	clientIP net.IP,
	conn net.Conn,
	clientReader *bufio.Reader,
	proxyStates map[string]*reverseproxy.State,
) (int, error) {
	var currentRootPath, currentFallback string

	for _, raw := range directives {
		switch d := raw.(type) {
		case config.Root:
			if pattern.Match(d.Pattern, req.Path) {
				currentRootPath = d.Path
				currentFallback = d.Fallback
			}

		case config.FileServer:
			if currentRootPath == "" {
				return terminate(conn, pipelineerr.InternalError("file_server with no preceding root"))
			}
			status, err := fileserving.Serve(conn, req, currentRootPath, currentFallback)
			if err == nil {
				return status, nil
			}
			if errors.Is(err, pipelineerr.ErrDirectiveNotMatched) {
				continue
			}
			return terminate(conn, err)

		case config.ReverseProxy:
			if !pattern.Match(d.Pattern, req.Path) {
				continue
			}
			state := proxyStates[d.Pattern]
			if state == nil {
				return terminate(conn, pipelineerr.InternalError("reverse_proxy with no backend state"))
			}
			status, err := reverseproxy.Dispatch(req, state, clientIP, conn, clientReader, reverseproxy.DefaultDialer)
			if err != nil {
				return terminate(conn, err)
			}
			// The upstream's own response (status, headers, body) was
			// already streamed to conn by Dispatch. Per spec §7's
			// UpstreamStatus(s) taxonomy entry this propagates as-is
			// rather than going through terminate, which would write a
			// second, conflicting response.
			return pipelineerr.UpstreamStatus(status).Status, nil

		case config.Redir:
			return redirect(conn, req, d.Destination)

		case config.RedirIfNotCookie:
			if hasCookie(req.Header.Get("Cookie"), d.CookieName) {
				continue
			}
			return redirect(conn, req, d.Destination)

		case config.Tls:
			// pure metadata, consumed by the port worker before the walk begins.
		}
	}

	return terminate(conn, pipelineerr.NotFound("no directive matched request"))
}

func redirect(w io.Writer, req *httpwire.Request, destination string) (int, error) {
	location := strings.ReplaceAll(destination, "{uri}", req.Path)
	resp := httpwire.NewResponse(http.StatusFound)
	resp.Header.Set("Location", location)
	if err := httpwire.WriteBuffered(w, resp); err != nil {
		return http.StatusFound, err
	}
	return http.StatusFound, nil
}

// hasCookie reports whether cookieHeader carries a cookie named name,
// per RFC 6265's "name=value; name2=value2" pair syntax.
func hasCookie(cookieHeader, name string) bool {
	for _, pair := range strings.Split(cookieHeader, ";") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) > 0 && kv[0] == name {
			return true
		}
	}
	return false
}
