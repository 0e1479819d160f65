package service

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"rate_monitor/internal/models"
)

var ErrNotFound = errors.New("preferences not found")

// Store хранит настройки виджета по профилю.
type Store interface {
	Load(ctx context.Context, profile string) (models.Preferences, error)
	Save(ctx context.Context, profile string, p models.Preferences) error
}

// Memory: Store без базы, живёт до рестарта.
type Memory struct {
	mu   sync.RWMutex
	data map[string]models.Preferences
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]models.Preferences)}
}

func (m *Memory) Load(_ context.Context, profile string) (models.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data[profile]
	if !ok {
		return models.Preferences{}, errors.Wrapf(ErrNotFound, "profile %q", profile)
	}
	return p, nil
}

func (m *Memory) Save(_ context.Context, profile string, p models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[profile] = p
	return nil
}
