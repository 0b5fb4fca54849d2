// Package session holds the rotating session token shared by all workers of a
// run, together with the policy that extracts replacement values from
// responses.
package session

import "sync"

// Store is the single mutable session-token cell shared across workers.
//
// Reads return whatever value was current at some point during the call;
// concurrent updates race and the last write wins. The store deliberately
// promises no causal ordering across workers — the target systems this tool
// drives require only best-effort token reuse, not session affinity.
type Store struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewStore creates a Store primed with seed. An empty seed leaves the store
// without a value until the first successful extraction.
func NewStore(seed string) *Store {
	s := &Store{}
	if seed != "" {
		s.token = seed
		s.set = true
	}
	return s
}

// Read returns the current token, if any.
func (s *Store) Read() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set
}

// TryUpdate overwrites the stored token when candidate is non-empty.
// An empty candidate is a no-op, never an error.
func (s *Store) TryUpdate(candidate string) {
	if candidate == "" {
		return
	}
	s.mu.Lock()
	s.token = candidate
	s.set = true
	s.mu.Unlock()
}
