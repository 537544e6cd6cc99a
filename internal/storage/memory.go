package storage

import (
	"context"
	"sync"
	"time"
)

type memoryValue struct {
	value     string
	expiresAt time.Time
}

func (v memoryValue) expired(now time.Time) bool {
	return !v.expiresAt.IsZero() && !now.Before(v.expiresAt)
}

type MemoryStore struct {
	mu     sync.RWMutex
	now    func() time.Time
	values map[string]memoryValue
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, values: make(map[string]memoryValue)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok || v.expired(m.now()) {
		return "", false, nil
	}
	return v.value, true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	return m.SetTTL(ctx, key, value, 0)
}

// SetTTL also drops every expired entry so that short-lived keys do not pile up.
func (m *MemoryStore) SetTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, v := range m.values {
		if v.expired(now) {
			delete(m.values, k)
		}
	}

	v := memoryValue{value: value}
	if ttl > 0 {
		v.expiresAt = now.Add(ttl)
	}
	m.values[key] = v
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Len counts live entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	n := 0
	for _, v := range m.values {
		if !v.expired(now) {
			n++
		}
	}
	return n
}
