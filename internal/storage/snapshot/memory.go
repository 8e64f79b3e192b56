package snapshot

import (
	"context"
	"sync"
)

// MemoryBackend keeps the last saved mapping in process memory.
type MemoryBackend struct {
	mu    sync.Mutex
	data  Data
	saves int
}

func NewMemoryBackend(initial Data) *MemoryBackend {
	return &MemoryBackend{data: clone(initial)}
}

func (m *MemoryBackend) Load(_ context.Context) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.data), nil
}

func (m *MemoryBackend) Save(_ context.Context, data Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = clone(data)
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func clone(data Data) Data {
	out := make(Data, len(data))
	for k, v := range data {
		out[k] = append([]string(nil), v...)
	}
	return out
}
