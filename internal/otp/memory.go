package otp

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local Store used when Redis is unavailable and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]entry), now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Put(_ context.Context, email, code string, ttl time.Duration) error {
	s.set(codeKey(email), code, ttl)
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := codeKey(email)
	e, ok := s.live(key)
	if !ok || subtle.ConstantTimeCompare([]byte(e.value), []byte(code)) != 1 {
		return false, nil
	}
	delete(s.items, key)
	return true, nil
}

func (s *MemoryStore) MarkVerified(_ context.Context, email string, ttl time.Duration) error {
	s.set(verifiedKey(email), "1", ttl)
	return nil
}

func (s *MemoryStore) ConsumeVerified(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := verifiedKey(email)
	if _, ok := s.live(key); !ok {
		return false, nil
	}
	delete(s.items, key)
	return true, nil
}

// Code returns the live code for email, for tests.
func (s *MemoryStore) Code(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(codeKey(email))
	return e.value, ok
}

func (s *MemoryStore) set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
}

// live must be called with mu held. Expired entries are dropped.
func (s *MemoryStore) live(key string) (entry, bool) {
	e, ok := s.items[key]
	if !ok {
		return entry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.items, key)
		return entry{}, false
	}
	return e, true
}
