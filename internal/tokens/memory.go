package tokens

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the fallback when no Redis address is configured.
// Tokens do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	userID    uint
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, purpose, token string, userID uint, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[purpose+":"+token] = memoryEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, purpose, token string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := purpose + ":" + token
	e, ok := s.entries[key]
	if !ok {
		return 0, false, nil
	}
	delete(s.entries, key)
	if time.Now().After(e.expiresAt) {
		return 0, false, nil
	}
	return e.userID, true, nil
}

func (s *MemoryStore) Peek(_ context.Context, purpose, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := purpose + ":" + token
	e, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}
