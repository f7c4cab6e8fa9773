package reverseproxy

import (
	"hash/fnv"
	"net"
	"sync"
	"time"
)

// State is the per-(host,pattern) ReverseProxyState of spec §3: the
// backend pool, its policy, and the round-robin cursor, all owned by
// the host and bounded by the configuration generation that produced
// it.
type State struct {
	Backends []*Backend
	Options  Options

	cursorMu sync.Mutex
	cursor   uint32
}

// NewState builds a fresh State with every backend starting Alive.
func NewState(destinations []string, opts Options, now time.Time) *State {
	backends := make([]*Backend, len(destinations))
	for i, d := range destinations {
		backends[i] = NewBackend(d, now)
	}
	return &State{Backends: backends, Options: opts}
}

// CarryOver returns the State for an updated directive: when the
// backend list is byte-for-byte unchanged, the existing State itself is
// returned with its Options replaced, so its liveness and cursor carry
// over, per spec §4.5 ("Update"). When the list differs, a fresh State
// is returned instead.
func CarryOver(old *State, destinations []string, opts Options, now time.Time) *State {
	if old != nil && sameDestinations(old, destinations) {
		old.Options = opts
		return old
	}
	return NewState(destinations, opts, now)
}

func sameDestinations(s *State, destinations []string) bool {
	if len(s.Backends) != len(destinations) {
		return false
	}
	for i, b := range s.Backends {
		if b.URL != destinations[i] {
			return false
		}
	}
	return true
}

// selectOrder returns the sequence of backend indices to try, in
// policy order, covering every backend exactly once. A nil return
// means the request must fail fast (IPHash with a non-IPv4 client).
func (s *State) selectOrder(clientIP net.IP) []int {
	n := len(s.Backends)
	if n == 0 {
		return nil
	}
	switch s.Options.Policy {
	case IPHash:
		ip4 := clientIP.To4()
		if ip4 == nil {
			return nil
		}
		h := fnv.New32a()
		_, _ = h.Write(ip4)
		return rotation(int(h.Sum32()%uint32(n)), n)
	default: // RoundRobin
		s.cursorMu.Lock()
		start := s.cursor
		s.cursor++
		s.cursorMu.Unlock()
		return rotation(int(start%uint32(n)), n)
	}
}

func rotation(start, n int) []int {
	order := make([]int, n)
	for i := 0; i < n; i++ {
		order[i] = (start + i) % n
	}
	return order
}
