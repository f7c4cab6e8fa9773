package supervisor

import (
	"sync"
	"time"

	"github.com/cbltproxy/cblt/internal/accesslog"
	"github.com/cbltproxy/cblt/internal/config"
	"github.com/cbltproxy/cblt/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Supervisor owns every PortWorker and reconciles them against
// successive DesiredState values, per spec §4.5: ports removed from
// the new state are stopped, surviving ports get their settings
// swapped in place, and new ports spawn fresh workers. Work for
// distinct ports runs concurrently; one port's failure never blocks
// another's (spec §6 "group ports handled concurrently").
type Supervisor struct {
	mu       sync.Mutex
	workers  map[int]*PortWorker
	maxConns int64
	logger   *zap.Logger
	access   *accesslog.Logger
	metrics  *metrics.Metrics
}

// New constructs an empty Supervisor admitting at most maxConns
// concurrent connections per port. A nil access logger falls back to
// a no-op one; a nil metrics registry disables instrumentation.
func New(maxConns int64, logger *zap.Logger, access *accesslog.Logger, m *metrics.Metrics) *Supervisor {
	if access == nil {
		access = accesslog.NewNop()
	}
	return &Supervisor{
		workers:  make(map[int]*PortWorker),
		maxConns: maxConns,
		logger:   logger,
		access:   access,
		metrics:  m,
	}
}

// Reconfigure diffs desired against the currently running workers and
// applies the difference concurrently, without holding the workers
// lock while any individual port's work (which can block on I/O, e.g.
// loading TLS material) runs.
func (s *Supervisor) Reconfigure(desired config.DesiredState) error {
	s.mu.Lock()
	current := make(map[int]*PortWorker, len(s.workers))
	for port, worker := range s.workers {
		current[port] = worker
	}
	s.mu.Unlock()

	now := time.Now()
	var g errgroup.Group
	var resultMu sync.Mutex
	spawned := make(map[int]*PortWorker)

	for port, worker := range current {
		port, worker := port, worker
		if _, keep := desired[port]; !keep {
			g.Go(func() error {
				if err := worker.Stop(); err != nil {
					s.logger.Warn("stopping port worker", zap.Int("port", port), zap.Error(err))
				}
				return nil
			})
		}
	}

	for port, spec := range desired {
		port, spec := port, spec
		worker, alreadyRunning := current[port]

		g.Go(func() error {
			var old *Settings
			if alreadyRunning {
				old = worker.settings.Load()
			}
			settings, err := buildSettings(old, spec, now)
			if err != nil {
				s.logger.Error("building settings", zap.Int("port", port), zap.Error(err))
				return nil
			}

			if alreadyRunning {
				logHostDiffs(s.logger, port, old, settings)
				worker.UpdateSettings(settings)
				return nil
			}

			fresh := NewPortWorker(port, s.maxConns, s.logger, s.access, s.metrics)
			if err := fresh.Start(settings); err != nil {
				s.logger.Error("starting port worker", zap.Int("port", port), zap.Error(err))
				return nil
			}
			resultMu.Lock()
			spawned[port] = fresh
			resultMu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	s.mu.Lock()
	for port := range current {
		if _, keep := desired[port]; !keep {
			delete(s.workers, port)
		}
	}
	for port, worker := range spawned {
		s.workers[port] = worker
	}
	s.mu.Unlock()
	return nil
}

// StopAll stops every running worker, for process shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var g errgroup.Group
	for _, worker := range s.workers {
		worker := worker
		g.Go(func() error { return worker.Stop() })
	}
	_ = g.Wait()
}
