// Package store holds the per-claim workflow state and the audit log sink.
package store

import (
	"sync"

	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
)

// StateStore maps claim ids to their workflow state. States are retained
// after the workflow terminates so they remain inspectable.
type StateStore interface {
	// Get returns the state for a claim id, if present
	Get(claimID string) (*workflow.State, bool)

	// Put stores the state for a claim id
	Put(state *workflow.State)

	// List returns a snapshot of every stored state
	List() []*workflow.State

	// Lock serializes access to one claim's state. The returned function
	// releases the lock.
	Lock(claimID string) func()
}

// MemoryStore is the in-process StateStore. A keyed mutex serializes
// concurrent start/resume calls on the same claim; different claims never
// contend.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*workflow.State

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory state store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*workflow.State),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Get returns the state for a claim id, if present
func (s *MemoryStore) Get(claimID string) (*workflow.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[claimID]
	return state, ok
}

// Put stores the state for a claim id
func (s *MemoryStore) Put(state *workflow.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ClaimID] = state
}

// List returns a snapshot of every stored state
func (s *MemoryStore) List() []*workflow.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*workflow.State, 0, len(s.states))
	for _, state := range s.states {
		out = append(out, state)
	}
	return out
}

// Lock serializes access to one claim's state
func (s *MemoryStore) Lock(claimID string) func() {
	s.lockMu.Lock()
	m, ok := s.locks[claimID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[claimID] = m
	}
	s.lockMu.Unlock()

	m.Lock()
	return m.Unlock
}
