// sqlite — durable-реализация storage.Store поверх локального файла SQLite.
// Переживает перезапуск клиента: после полного рестарта сессия и симуляция
// читаются из того же файла.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/pribylovaa/go-servicehours-client/internal/storage"
)

// Store — key/value-хранилище в одной таблице kv.
type Store struct {
	db *sql.DB
}

// New открывает (или создаёт) файл БД и готовит схему.
func New(ctx context.Context, path string) (*Store, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}

	// WAL и busy_timeout — чтобы конкурентные чтения не упирались
	// в "database is locked".
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %s: %w", op, pragma, err)
		}
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}

	return &Store{db: db}, nil
}

// Get возвращает значение по ключу или storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const op = "storage.sqlite.Get"

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

// Set сохраняет значение по ключу (upsert).
func (s *Store) Set(ctx context.Context, key, value string) error {
	const op = "storage.sqlite.Set"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Remove удаляет значение по ключу; отсутствие ключа — не ошибка.
func (s *Store) Remove(ctx context.Context, key string) error {
	const op = "storage.sqlite.Remove"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает соединение с БД.
func (s *Store) Close() error {
	return s.db.Close()
}
