// Package main wires the cblt binary's subsystems together: the
// config/docker-labels loader, the supervisor, access logging, metrics,
// and the admin surface. Grounded on caddyserver/caddy's cmd/cobra.go
// and cmd/commandfuncs.go, which build a cobra root command around a
// single long-running "run" action instead of caddy's broader
// multi-subcommand surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbltproxy/cblt/internal/accesslog"
	"github.com/cbltproxy/cblt/internal/config"
	"github.com/cbltproxy/cblt/internal/dockerlabels"
	"github.com/cbltproxy/cblt/internal/metrics"
	"github.com/cbltproxy/cblt/internal/supervisor"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const reloadSentinel = "reload"

func newRootCmd() *cobra.Command {
	var (
		cfgPath    string
		maxConns   int64
		reload     bool
		mode       string
		accessPath string
		dockerSock string
		adminAddr  string
	)

	cmd := &cobra.Command{
		Use:   "cblt",
		Short: "cblt runs a configurable HTTP/1.1 reverse proxy and static file server",
		Long: `cblt is a light, always-on reverse proxy and static file server for
small fleets. It terminates client connections, matches each request to
a virtual host, and dispatches it through an ordered pipeline of
directives: serve a local file, issue a redirect, or relay to one of
several upstream backends with load balancing and liveness tracking.

Configuration comes from a Cbltfile (--cfg) or, in --mode docker, from
cblt.*-prefixed labels on running containers. Use --reload to watch for
a "reload" sentinel file and re-read the configuration without
restarting.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runOptions{
				cfgPath:    cfgPath,
				maxConns:   maxConns,
				reload:     reload,
				mode:       mode,
				accessPath: accessPath,
				dockerSock: dockerSock,
				adminAddr:  adminAddr,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgPath, "cfg", "./Cbltfile", "path to the Cbltfile")
	flags.Int64Var(&maxConns, "max-connections", 10000, "maximum concurrent connections per listening port")
	flags.BoolVar(&reload, "reload", false, "watch for a \"reload\" sentinel file and re-read configuration")
	flags.StringVar(&mode, "mode", "config", "configuration source: \"config\" (Cbltfile) or \"docker\" (container labels)")
	flags.StringVar(&accessPath, "access-log", "", "path to write the access log to (disabled if empty)")
	flags.StringVar(&dockerSock, "docker-socket", "/var/run/docker.sock", "container engine API socket, used with --mode docker")
	flags.StringVar(&adminAddr, "admin-addr", "127.0.0.1:2019", "loopback address the metrics/healthz admin surface listens on")

	return cmd
}

type runOptions struct {
	cfgPath    string
	maxConns   int64
	reload     bool
	mode       string
	accessPath string
	dockerSock string
	adminAddr  string
}

// loader abstracts the two DesiredState sources named by spec.md §6:
// the declarative Cbltfile and container-orchestrator labels.
type loader func(ctx context.Context) (config.DesiredState, error)

func newLoader(opts runOptions) loader {
	switch opts.mode {
	case "docker":
		client := dockerlabels.NewClient(opts.dockerSock)
		return client.Fetch
	default:
		return func(ctx context.Context) (config.DesiredState, error) {
			f, err := os.Open(opts.cfgPath)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return config.Parse(f)
		}
	}
}

func run(ctx context.Context, opts runOptions) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	var access *accesslog.Logger
	if opts.accessPath != "" {
		access = accesslog.New(accesslog.Options{
			Path:       opts.accessPath,
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 28,
		})
	}

	m := metrics.New()
	load := newLoader(opts)

	desired, err := load(ctx)
	if err != nil {
		return fmt.Errorf("loading initial configuration: %w", err)
	}

	sup := supervisor.New(opts.maxConns, logger, access, m)
	if err := sup.Reconfigure(desired); err != nil {
		return fmt.Errorf("applying initial configuration: %w", err)
	}

	logger.Info("cblt started",
		zap.String("mode", opts.mode),
		zap.String("max_connections", humanize.Comma(opts.maxConns)),
		zap.Int("ports", len(desired)),
	)

	admin := newAdminServer(opts.adminAddr, m)
	go func() {
		if err := admin.ListenAndServe(); err != nil {
			logger.Debug("admin server stopped", zap.Error(err))
		}
	}()
	defer admin.Close()

	if opts.reload {
		go watchReload(ctx, load, sup, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	sup.StopAll()
	logger.Info("cblt stopped")
	return nil
}

// watchReload polls for the reload sentinel at ~1s granularity, per
// spec.md §6, re-deriving DesiredState and publishing it to the
// supervisor without blocking traffic during the swap.
func watchReload(ctx context.Context, load loader, sup *supervisor.Supervisor, logger *zap.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := os.Stat(reloadSentinel); err != nil {
				continue
			}
			desired, err := load(ctx)
			if err != nil {
				logger.Error("reloading configuration", zap.Error(err))
				os.Remove(reloadSentinel)
				continue
			}
			if err := sup.Reconfigure(desired); err != nil {
				logger.Error("applying reloaded configuration", zap.Error(err))
			}
			os.Remove(reloadSentinel)
			logger.Info("configuration reloaded", zap.Int("ports", len(desired)))
		}
	}
}
