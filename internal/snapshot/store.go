// Package snapshot holds the latest applied fetch-cycle outcome behind an
// atomically swapped, cycle-stamped pointer.
package snapshot

import (
	"errors"
	"sync/atomic"

	"github.com/couchcryptid/covid-stats-service/internal/domain"
)

// ErrNoSnapshot is reported before any cycle has been applied.
var ErrNoSnapshot = errors.New("no fetch cycle has completed yet")

// State is an immutable view of the latest applied cycle. Exactly one of
// Snapshot and Err is set once Cycle > 0.
type State struct {
	Cycle    uint64
	Snapshot *domain.Snapshot
	Err      error
}

// Ready reports whether the state carries data views can render.
func (s State) Ready() bool {
	return s.Snapshot != nil && s.Err == nil
}

// Store publishes cycle outcomes. Outcomes from a cycle older than (or equal
// to) the applied one are discarded, so a slow superseded cycle never
// overwrites fresher state.
type Store struct {
	current atomic.Pointer[State]

	// lastGood survives failed cycles so readiness reflects whether the
	// service has ever produced data.
	lastGood atomic.Pointer[domain.Snapshot]
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&State{})
	return s
}

// Current returns the latest applied state.
func (s *Store) Current() State {
	return *s.current.Load()
}

// LastGood returns the most recent committed snapshot, even if a later cycle
// failed, or nil.
func (s *Store) LastGood() *domain.Snapshot {
	return s.lastGood.Load()
}

// Commit publishes a successful snapshot. It returns false when a newer cycle
// has already been applied.
func (s *Store) Commit(snap *domain.Snapshot) bool {
	if !s.apply(&State{Cycle: snap.Cycle, Snapshot: snap}) {
		return false
	}
	for {
		prev := s.lastGood.Load()
		if prev != nil && prev.Cycle >= snap.Cycle {
			return true
		}
		if s.lastGood.CompareAndSwap(prev, snap) {
			return true
		}
	}
}

// Fail records a failed cycle. It returns false when a newer cycle has
// already been applied.
func (s *Store) Fail(cycle uint64, err error) bool {
	return s.apply(&State{Cycle: cycle, Err: err})
}

func (s *Store) apply(next *State) bool {
	for {
		prev := s.current.Load()
		if next.Cycle <= prev.Cycle {
			return false
		}
		if s.current.CompareAndSwap(prev, next) {
			return true
		}
	}
}
