package db

import (
	"context"
	"sync"

	"inflow/internal/models"
)

// MemoryStore is a SettingsStore kept in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	saves  int
}

func NewMemoryStore(initial models.Settings) *MemoryStore {
	values, _ := EncodeSettings(initial)
	return &MemoryStore{values: values}
}

func (m *MemoryStore) LoadSettings(ctx context.Context) (models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DecodeSettings(m.values), nil
}

func (m *MemoryStore) SaveSettings(ctx context.Context, s models.Settings) error {
	values, err := EncodeSettings(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = values
	m.saves++
	return nil
}

func (m *MemoryStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
