// Package store provides DocumentStore implementations.
package store

import (
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.Mutex
	doc     []byte
	backups map[string][]byte
	saves   int
}

func NewMemory() *Memory {
	return &Memory{backups: make(map[string][]byte)}
}

func (m *Memory) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, nil
	}
	return append([]byte(nil), m.doc...), nil
}

func (m *Memory) Save(raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = append([]byte(nil), raw...)
	m.saves++
	return nil
}

func (m *Memory) Close() error { return nil }

// WriteBackup stores an untouched copy under a unique timestamped key.
func (m *Memory) WriteBackup(raw []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("backup-%d", time.Now().UnixNano())
	for i := 1; ; i++ {
		if _, exists := m.backups[key]; !exists {
			break
		}
		key = fmt.Sprintf("backup-%d-%d", time.Now().UnixNano(), i)
	}
	m.backups[key] = append([]byte(nil), raw...)
	return key, nil
}

// Saves reports how many durable writes happened (debounce coalescing is
// observable through this).
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Backups returns the number of stored backup copies.
func (m *Memory) Backups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.backups)
}
