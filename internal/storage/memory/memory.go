// memory — эфемерная реализация storage.Store поверх map с мьютексом.
// Используется в тестах и при запуске без durable-хранилища.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/go-servicehours-client/internal/storage"
)

// Store — потокобезопасное in-memory хранилище.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New создаёт пустое in-memory хранилище.
func New() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

// Get возвращает значение по ключу или storage.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	const op = "storage.memory.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return value, nil
}

// Set сохраняет значение по ключу.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value

	return nil
}

// Remove удаляет значение по ключу; отсутствие ключа — не ошибка.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}

// Close — no-op для in-memory хранилища.
func (s *Store) Close() error {
	return nil
}
