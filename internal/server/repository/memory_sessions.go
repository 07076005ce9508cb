package repository

import (
	"context"
	"sync"
	"time"

	"github.com/IvanChernomyrdin/go-geoauth/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
)

type memorySession struct {
	payload   models.SessionPayload
	expiresAt time.Time
}

// MemorySessions — потокобезопасное in-memory хранилище сессий (session.store=memory).
//
// Используется для локального запуска и тестов. Экземпляр создаётся в main
// и передаётся в сервис, глобального состояния у пакета нет.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessions создаёт пустое хранилище.
func NewMemorySessions() *MemorySessions {
	return NewMemorySessionsWithClock(time.Now)
}

// NewMemorySessionsWithClock — то же самое с подменяемыми часами (для тестов).
func NewMemorySessionsWithClock(now func() time.Time) *MemorySessions {
	return &MemorySessions{
		sessions: make(map[string]memorySession),
		now:      now,
	}
}

func (m *MemorySessions) Create(_ context.Context, key []byte, payload models.SessionPayload, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[string(key)] = memorySession{payload: payload, expiresAt: expiresAt}
	return nil
}

func (m *MemorySessions) Get(_ context.Context, key []byte) (models.SessionPayload, error) {
	m.mu.RLock()
	s, ok := m.sessions[string(key)]
	m.mu.RUnlock()

	if !ok || !s.expiresAt.After(m.now()) {
		return models.SessionPayload{}, serr.ErrNotFound
	}
	return s.payload, nil
}

func (m *MemorySessions) Destroy(_ context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, string(key))
	return nil
}

// DeleteExpired удаляет просроченные сессии.
func (m *MemorySessions) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var n int64
	for k, s := range m.sessions {
		if !s.expiresAt.After(now) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

// Len — количество записей (включая ещё не вычищенные просроченные).
func (m *MemorySessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
