package prefs

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a map-backed Store.  It serves tests and runs without
// Redis; values do not survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func memKey(userID uint64, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

// Get returns the stored value or def when absent.
func (s *MemoryStore) Get(_ context.Context, userID uint64, key, def string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[memKey(userID, key)]; ok {
		return v, nil
	}
	return def, nil
}

// Set stores a value for the user.
func (s *MemoryStore) Set(_ context.Context, userID uint64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[memKey(userID, key)] = value
	return nil
}

// Remove deletes a key if present.
func (s *MemoryStore) Remove(_ context.Context, userID uint64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, memKey(userID, key))
	return nil
}
