package storage

import (
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory is a process-local Store. Errors can be injected to exercise the
// degraded paths of callers.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string

	// FailGet, FailSet and FailRemove, when non-nil, are returned by the
	// matching operation instead of touching data.
	FailGet    error
	FailSet    error
	FailRemove error

	removed []string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailGet != nil {
		return "", false, m.FailGet
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		return m.FailSet
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, key)
	if m.FailRemove != nil {
		return m.FailRemove
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

func (m *Memory) Close() error { return nil }

// Removed lists every key passed to Remove, including failed attempts.
func (m *Memory) Removed() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.removed...)
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
