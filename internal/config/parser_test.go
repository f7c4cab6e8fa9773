package config

import (
	"strings"
	"testing"

	"github.com/cbltproxy/cblt/internal/reverseproxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStaticSite(t *testing.T) {
	const src = `
example.com {
    root "*" "./www" "fallback.html"
    file_server
}
`
	state, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	spec, ok := state[80]
	require.True(t, ok, "defaults to port 80 without tls")
	directives, ok := spec.Hosts["example.com"]
	require.True(t, ok)
	require.Len(t, directives, 2)

	root, ok := directives[0].(Root)
	require.True(t, ok)
	assert.Equal(t, "*", root.Pattern)
	assert.Equal(t, "./www", root.Path)
	assert.Equal(t, "fallback.html", root.Fallback)

	_, ok = directives[1].(FileServer)
	assert.True(t, ok)
}

func TestParseReverseProxyWithOptions(t *testing.T) {
	const src = `
api.example.com {
    reverse_proxy "/api/*" "127.0.0.1:9001" "127.0.0.1:9002" {
        lb_retries 5
        lb_interval 10s
        lb_timeout 2s
        lb_policy "ip_hash"
    }
}
`
	state, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	directives := state[80].Hosts["api.example.com"]
	require.Len(t, directives, 1)
	rp := directives[0].(ReverseProxy)
	assert.Equal(t, []string{"127.0.0.1:9001", "127.0.0.1:9002"}, rp.Destinations)
	assert.Equal(t, uint64(5), rp.Options.Retries)
	assert.Equal(t, uint64(10), rp.Options.IntervalSecs)
	assert.Equal(t, uint64(2), rp.Options.TimeoutSecs)
	assert.Equal(t, reverseproxy.IPHash, rp.Options.Policy)
}

func TestParseTlsDefaultsPort443(t *testing.T) {
	const src = `
secure.example.com {
    tls "/etc/cert.pem" "/etc/key.pem"
    file_server
}
`
	state, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	spec, ok := state[443]
	require.True(t, ok)
	assert.Equal(t, "/etc/cert.pem", spec.CertPath)
	assert.Equal(t, "/etc/key.pem", spec.KeyPath)
}

func TestParseExplicitPortOverridesTlsDefault(t *testing.T) {
	const src = `
secure.example.com:8443 {
    tls "/etc/cert.pem" "/etc/key.pem"
    file_server
}
`
	state, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	_, ok := state[8443]
	assert.True(t, ok)
}

func TestParseWildcardHost(t *testing.T) {
	const src = `
* {
    file_server
}
`
	state, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	_, ok := state[80].Hosts["*"]
	assert.True(t, ok)
}

func TestParseDuplicateHostFails(t *testing.T) {
	const src = `
example.com {
    file_server
}
example.com {
    file_server
}
`
	_, err := Parse(strings.NewReader(src))
	assert.Error(t, err)
}

func TestParseUnknownDirectiveFails(t *testing.T) {
	const src = `
example.com {
    bogus_directive
}
`
	_, err := Parse(strings.NewReader(src))
	assert.Error(t, err)
}

func TestParseRedirSubstitutesUri(t *testing.T) {
	const src = `
example.com {
    redir "https://other.example.com{uri}"
}
`
	state, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	redir := state[80].Hosts["example.com"][0].(Redir)
	assert.Equal(t, "https://other.example.com{uri}", redir.Destination)
}
