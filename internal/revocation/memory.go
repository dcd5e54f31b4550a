package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process revocation set for single-node deployments.
// Entries are pruned lazily on lookup and by the background sweeper; neither
// is required for correctness, only for bounded memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records the token id. Re-revoking an already revoked id is a no-op.
func (s *MemoryStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenID] = expiresAt
	return nil
}

// IsRevoked reports whether the token id is present and its token has not
// yet naturally expired. Expired entries are dropped on sight.
func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	expiresAt, ok := s.entries[tokenID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if s.now().After(expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; the entry may have been
		// replaced by a fresh revocation in the meantime.
		if current, stillThere := s.entries[tokenID]; stillThere && s.now().After(current) {
			delete(s.entries, tokenID)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Sweep removes entries whose tokens have expired and returns how many
// were dropped.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
