package repository

import (
	"context"
	"qdrt_backend/internal/util"
	"sync"
)

// StateStore is durable key-value storage for reviewer state.
// Load returns util.ErrStateNotFound when the key has never been saved.
type StateStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// MemoryStateStore keeps state for the lifetime of the process only.
type MemoryStateStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{data: make(map[string][]byte)}
}

func (s *MemoryStateStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, util.ErrStateNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStateStore) Save(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStateStore) Ping(ctx context.Context) error {
	return nil
}
