// storage задаёт контракт клиентского key/value-хранилища.
//
// Хранилище — разделяемое состояние: его читают и пишут и менеджер сессии,
// и координатор заявок. Значения — строки (JSON для составных структур),
// набор ключей фиксирован константами ниже — это видимый контракт,
// совместимый с существующим бэкендом и его тестами.
//
// Блокировок нет: read-modify-write последовательности симуляции не атомарны
// между конкурентными вызовами. Допустимо, пока на один экземпляр хранилища
// приходится не больше одной активной пользовательской сессии.
package storage

import (
	"context"
	"errors"
)

// Ключи хранилища. Имена совместимы с клиентским контрактом платформы.
const (
	// KeyAuthToken — текущий access-токен.
	KeyAuthToken = "authToken"
	// KeyRefreshToken — refresh-токен.
	KeyRefreshToken = "refreshToken"
	// KeyUser — JSON-запись идентичности пользователя.
	KeyUser = "user"
	// KeyJoinedProjects — JSON-массив id проектов, к которым присоединились локально.
	KeyJoinedProjects = "joinedProjects"
	// KeyProjectCounters — JSON-карта id проекта -> симулированное число участников.
	KeyProjectCounters = "projectCounters"
	// KeyProjectParticipants — JSON-карта id проекта -> симулированный список участников.
	KeyProjectParticipants = "projectParticipants"
)

var (
	// ErrNotFound — значение по ключу отсутствует.
	ErrNotFound = errors.New("not found")
)

// Store — контракт key/value-хранилища, внедряемый в компоненты.
// Тесты подставляют in-memory реализацию (internal/storage/memory) или мок.
type Store interface {
	// Get возвращает значение по ключу или ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set сохраняет значение по ключу (создаёт или перезаписывает).
	Set(ctx context.Context, key, value string) error
	// Remove удаляет значение по ключу; отсутствие ключа — не ошибка.
	Remove(ctx context.Context, key string) error
	// Close освобождает ресурсы хранилища.
	Close() error
}
