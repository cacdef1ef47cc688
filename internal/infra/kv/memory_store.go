package kv

import (
	"context"
	"sync"

	"ddns-telegram-relay/internal/domain/ports/repository"
)

var _ repository.KV = (*MemoryStore)(nil)

// MemoryStore is a process-local KV backend for development and tests.
// Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key repository.Key) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key.String()]
	return v, ok, nil
}

func (m *MemoryStore) Transact(ctx context.Context, txn repository.Txn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range txn.Absent {
		if _, exists := m.data[k.String()]; exists {
			return repository.ErrConflict
		}
	}
	for _, w := range txn.Writes {
		m.data[w.Key.String()] = w.Value
	}
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
