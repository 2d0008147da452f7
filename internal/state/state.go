package state

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Get when the requested key is absent.
// Presence is what matters: a key that was set to nil is still found.
var ErrKeyNotFound = errors.New("state: key not found")

// Store is a mapping from string keys to arbitrary values, guarded by a
// single reentrant lock. One instance is created at node start and shared by
// reference with every worker goroutine; it is the only shared memory
// between them. See the package documentation for the concurrency contract.
type Store struct {
	lock    recursiveMutex
	entries map[string]any
}

// New creates a Store seeded with a copy of initial. A nil initial mapping
// yields an empty store.
func New(initial map[string]any) *Store {
	entries := make(map[string]any, len(initial))
	for k, v := range initial {
		entries[k] = v
	}
	return &Store{entries: entries}
}

// Get returns the current value for key, or an error wrapping ErrKeyNotFound
// if the key is absent.
func (s *Store) Get(key string) (any, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	v, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return v, nil
}

// Set inserts or overwrites the value for key.
func (s *Store) Set(key string, value any) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.entries[key] = value
}

// GetDefault returns the stored value for key if present, otherwise def.
// The default is never inserted into the store.
func (s *Store) GetDefault(key string, def any) any {
	s.lock.Lock()
	defer s.lock.Unlock()

	if v, ok := s.entries[key]; ok {
		return v
	}
	return def
}

// Update merges every key/value pair from entries into the store as one
// atomic operation. No concurrent reader can observe a store with only some
// of the pairs applied.
func (s *Store) Update(entries map[string]any) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for k, v := range entries {
		s.entries[k] = v
	}
}

// Snapshot returns an independent copy of the entire store. Mutating the
// returned map never affects the store and vice versa. Values are shared,
// so callers must treat payloads (frame buffers, detection slices) as
// read-only by convention.
func (s *Store) Snapshot() map[string]any {
	s.lock.Lock()
	defer s.lock.Unlock()

	copied := make(map[string]any, len(s.entries))
	for k, v := range s.entries {
		copied[k] = v
	}
	return copied
}

// Lock acquires the store's lock for a custom atomic sequence of reads and
// writes that the primitive operations cannot express. The lock is
// reentrant: while held, every Store operation remains safe to call from
// the same goroutine. Store satisfies sync.Locker.
func (s *Store) Lock() { s.lock.Lock() }

// Unlock releases one acquisition of the store's lock.
func (s *Store) Unlock() { s.lock.Unlock() }
