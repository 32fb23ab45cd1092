package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Medium implements ports.ListableMedium in memory.
// Safe for concurrent use.
type Medium struct {
	data map[string]string
	mu   sync.RWMutex
}

// NewMedium creates a new in-memory medium.
func NewMedium() *Medium {
	return &Medium{
		data: make(map[string]string),
	}
}

// GetItem returns the value stored under key.
func (m *Medium) GetItem(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (m *Medium) SetItem(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// RemoveItem deletes key.
func (m *Medium) RemoveItem(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the stored keys starting with prefix, sorted.
func (m *Medium) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
