package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Record)}
}

func (m *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}

	id := uuid.NewString()
	m.collections[collection] = append(m.collections[collection], Record{ID: id, Data: copied})
	return id, nil
}

func (m *MemoryStore) List(ctx context.Context, collection string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]Record, len(m.collections[collection]))
	copy(records, m.collections[collection])
	return records, nil
}
