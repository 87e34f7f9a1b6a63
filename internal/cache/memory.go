package cache

import (
	"context"
	"sync"
	"time"
)

// MemorySelectionStore is the in-process SelectionStore used with
// STORE_BACKEND=memory.
type MemorySelectionStore struct {
	mu   sync.Mutex
	last map[string]string
}

func NewMemorySelectionStore() *MemorySelectionStore {
	return &MemorySelectionStore{last: make(map[string]string)}
}

func (s *MemorySelectionStore) Load(_ context.Context, principalID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[principalID], nil
}

func (s *MemorySelectionStore) Save(_ context.Context, principalID, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[principalID] = tenantID
	return nil
}

// MemoryRevocationStore is the in-process RevocationStore.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = s.now().Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
