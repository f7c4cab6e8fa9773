package reverseproxy

import (
	"sync"
	"time"
)

// aliveState is the sum type from spec §3: either Alive(lastChecked) or
// Dead{since, retriesLeft}, selected by alive. retriesLeft is also kept
// while a provisionally revived backend is Alive, so a failure of that
// revival can restore the decremented budget; it is 0 otherwise.
type aliveState struct {
	alive       bool
	lastChecked time.Time // valid when alive
	since       time.Time // valid when !alive
	retriesLeft uint64    // valid when !alive or provisionally alive
}

// Backend is one upstream authority registered under a ReverseProxy
// directive. Its liveness is read and written under its own lock so
// concurrent dispatches across backends never contend with each
// other (spec §5, "Shared mutable state (a)").
type Backend struct {
	URL string // authority, e.g. "127.0.0.1:9001"

	mu    sync.Mutex
	state aliveState
}

// NewBackend starts a backend in the Alive state, per spec §4.5
// ("new state starts Alive(now) for all backends").
func NewBackend(url string, now time.Time) *Backend {
	return &Backend{URL: url, state: aliveState{alive: true, lastChecked: now}}
}

// snapshot returns a copy of the current state for inspection
// (metrics, tests) without holding the lock.
func (b *Backend) snapshot() aliveState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsAlive reports the current alive/dead flag, for metrics export.
func (b *Backend) IsAlive() bool {
	return b.snapshot().alive
}

// RetriesLeft reports the current retry budget, for metrics export. It
// is 0 for a backend that is Alive after a successful dispatch, and the
// remaining budget for a Dead or provisionally revived backend.
func (b *Backend) RetriesLeft() uint64 {
	return b.snapshot().retriesLeft
}

// tryPick attempts to claim this backend for a dispatch attempt. It
// returns ok=false if the backend should be skipped entirely. If ok is
// true, wasRevival tells the caller whether this was an optimistic
// revival of a Dead backend (so a subsequent connect failure should
// not reset the retry budget back to full, per spec §4.4's state
// table) as opposed to a backend that was already Alive.
//
// A Dead backend whose retry budget is exhausted is periodically reset
// (since=now, retriesLeft=fullRetries) once the interval elapses, so a
// permanently dead backend keeps getting a fresh budget over time, but
// that reset alone does not make it eligible this round.
func (b *Backend) tryPick(now time.Time, interval time.Duration, fullRetries uint64) (ok, wasRevival bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.alive {
		return true, false
	}
	if now.Before(b.state.since.Add(interval)) {
		return false, false
	}
	if b.state.retriesLeft == 0 {
		b.state.since = now
		b.state.retriesLeft = fullRetries
		return false, false
	}
	b.state.alive = true
	b.state.lastChecked = now
	b.state.retriesLeft--
	return true, true
}

// markSuccess records a successful dispatch: the backend is Alive(now)
// unconditionally.
func (b *Backend) markSuccess(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = aliveState{alive: true, lastChecked: now}
}

// markFailure records a failed connect/dispatch attempt. A backend
// that was genuinely Alive (not a provisional revival) resets its
// retry budget to fullRetries; a provisional revival that failed keeps
// whatever budget tryPick already decremented.
func (b *Backend) markFailure(now time.Time, fullRetries uint64, wasRevival bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	retries := fullRetries
	if wasRevival {
		retries = b.state.retriesLeft
	}
	b.state = aliveState{alive: false, since: now, retriesLeft: retries}
}
