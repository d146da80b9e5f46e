package persistence

import (
	"context"
	"sync"

	"github.com/sessionseal/sessionseal"
)

// Verify MemoryStore implements the store interface.
var _ sessionseal.Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of a Store. Records do not
// survive a process restart; it is intended for tests and single-process
// deployments.
type MemoryStore struct {
	sync.RWMutex

	records map[string][]byte
}

// NewMemoryStore returns a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
	}
}

// Load retrieves the record for the given storage key.
// The return value will be nil if not already present.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()

	data, ok := s.records[key]
	if !ok {
		return nil, nil
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	return cp, nil
}

// Store persists the record under the given storage key, replacing any
// existing record.
func (s *MemoryStore) Store(_ context.Context, key string, data []byte) error {
	s.Lock()
	defer s.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)

	s.records[key] = cp

	return nil
}

// Remove deletes the record for the given storage key, if present.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.Lock()
	defer s.Unlock()

	delete(s.records, key)

	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.RLock()
	defer s.RUnlock()

	return len(s.records)
}
