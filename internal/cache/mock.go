package cache

import (
	"context"
	"sync"
	"time"
)

// MockSeenGuard is an in-memory guard used in tests and when no Redis is
// configured. TTLs are ignored; entries live for the process lifetime.
type MockSeenGuard struct {
	mu   sync.Mutex
	data map[string]struct{}
}

func NewMockSeenGuard() *MockSeenGuard {
	return &MockSeenGuard{data: make(map[string]struct{})}
}

func (m *MockSeenGuard) Close() error {
	return nil
}

func (m *MockSeenGuard) Seen(ctx context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.data[keyPrefix+hash]
	return exists, nil
}

func (m *MockSeenGuard) MarkSeen(ctx context.Context, hash string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[keyPrefix+hash] = struct{}{}
	return nil
}

func (m *MockSeenGuard) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]struct{})
	return nil
}
