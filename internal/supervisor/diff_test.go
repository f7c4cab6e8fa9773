package supervisor

import (
	"testing"

	"github.com/cbltproxy/cblt/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogHostDiffsLogsChangedHost(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	old := &Settings{Hosts: map[string]HostDetails{
		"example.com": {Directives: []config.Directive{config.Redir{Destination: "https://a{uri}"}}},
	}}
	fresh := &Settings{Hosts: map[string]HostDetails{
		"example.com": {Directives: []config.Directive{config.Redir{Destination: "https://b{uri}"}}},
	}}

	logHostDiffs(logger, 80, old, fresh)

	require := logs.FilterMessage("host configuration changed")
	assert.Equal(t, 1, require.Len())
}

func TestLogHostDiffsSkipsUnchangedHost(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	same := []config.Directive{config.FileServer{}}
	old := &Settings{Hosts: map[string]HostDetails{"example.com": {Directives: same}}}
	fresh := &Settings{Hosts: map[string]HostDetails{"example.com": {Directives: same}}}

	logHostDiffs(logger, 80, old, fresh)
	assert.Equal(t, 0, logs.Len())
}
