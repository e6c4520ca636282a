package otp

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credvault/internal/ttlcache"
)

// MemoryStore keeps challenges in process memory. Challenges issued by one
// process are invisible to any other.
type MemoryStore struct {
	cache *ttlcache.Cache[Challenge]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: ttlcache.New[Challenge]()}
}

func (s *MemoryStore) Put(_ context.Context, recipient string, ch Challenge, ttl time.Duration) error {
	s.cache.Set(recipient, ch, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, recipient string) (Challenge, bool, error) {
	ch, ok := s.cache.Get(recipient)
	return ch, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, recipient string) error {
	s.cache.Delete(recipient)
	return nil
}

// Consume is atomic only together with the Manager's per-recipient lock,
// which is enough for a store no other process can see.
func (s *MemoryStore) Consume(_ context.Context, recipient, code string) (bool, error) {
	ch, ok := s.cache.Get(recipient)
	if !ok || ch.Code != code {
		return false, nil
	}
	return s.cache.Delete(recipient), nil
}

// Purge drops entries past their retention and returns how many went.
func (s *MemoryStore) Purge() int {
	return s.cache.Purge()
}
