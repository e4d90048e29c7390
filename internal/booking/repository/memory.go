package repository

import (
	"context"
	"sync"

	"clearaway_backend/internal/booking/domain"
)

// MemoryRepository is an in-process session store. It backs unit tests and
// single-instance deployments that run without Redis.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	locks    map[string]bool
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]domain.Session),
		locks:    make(map[string]bool),
	}
}

func (m *MemoryRepository) Create(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := session
	return &copied, nil
}

func (m *MemoryRepository) Update(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryRepository) TryLockSubmit(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] {
		return false, nil
	}
	m.locks[id] = true
	return true, nil
}

func (m *MemoryRepository) UnlockSubmit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
	return nil
}

// Compile-time check.
var _ Repository = (*MemoryRepository)(nil)
