package state

import (
	"bytes"
	"context"
	"sync"
)

// MemoryBackend keeps records in process memory. It is used by tests and dry runs.
type MemoryBackend struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string][]byte)}
}

func memoryKey(partition, key string) string { return partition + "/" + key }

func (m *MemoryBackend) Get(_ context.Context, partition, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[memoryKey(partition, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Put(_ context.Context, partition, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[memoryKey(partition, key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Create(_ context.Context, partition, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey(partition, key)
	if _, ok := m.records[k]; ok {
		return ErrExists
	}
	m.records[k] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, partition, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, memoryKey(partition, key))
	return nil
}

func (m *MemoryBackend) DeleteIf(_ context.Context, partition, key string, expected []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey(partition, key)
	v, ok := m.records[k]
	if !ok || !bytes.Equal(v, expected) {
		return false, nil
	}
	delete(m.records, k)
	return true, nil
}

func (m *MemoryBackend) Close() error { return nil }

// Len returns the number of records across all partitions.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
