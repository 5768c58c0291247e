// session владеет жизненным циклом bearer-токенов: логин, хранение,
// чтение, обновление по истечении и logout.
//
// Основные аспекты:
//   - Manager не кэширует состояние в памяти: токены и пользователь всегда
//     перечитываются из хранилища, поэтому состояние корректно и после
//     полного перезапуска клиента.
//   - Протокол refresh-and-retry централизован в Do (см. do.go); другие
//     компоненты не повторяют его на своих call-site'ах.
//   - Конкурентные операции, одновременно получившие 401, выполняют протокол
//     независимо; дедупликации одновременных refresh нет — допустимо, пока
//     хранилище обслуживает одну активную сессию.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-servicehours-client/internal/models"
	"github.com/pribylovaa/go-servicehours-client/internal/pkg/log"
	"github.com/pribylovaa/go-servicehours-client/internal/storage"
	"github.com/pribylovaa/go-servicehours-client/internal/transport/rest"
)

var (
	// ErrInvalidCredentials — бэкенд отверг пару логин/пароль.
	// Класс AuthenticationError.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated — в хранилище нет access-токена; операция требует
	// предварительного логина. Класс AuthenticationError.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired — терминальный отказ обновления: refresh-токен
	// отсутствует или отвергнут. Сессия уже уничтожена; вызывающая сторона
	// обязана перенаправить на вход. Класс AuthenticationError.
	ErrSessionExpired = errors.New("session expired")
)

// Manager — менеджер клиентской сессии.
type Manager struct {
	store  storage.Store
	client *rest.Client
}

// New создаёт менеджер сессии поверх хранилища и REST-клиента.
func New(store storage.Store, client *rest.Client) *Manager {
	return &Manager{
		store:  store,
		client: client,
	}
}

type loginRequest struct {
	Usuario  string `json:"usuario"`
	Password string `json:"password"`
}

type tokensPayload struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type loginResponse struct {
	User   models.User   `json:"user"`
	Tokens tokensPayload `json:"tokens"`
}

// Login выполняет вход по логину и паролю.
// На успех сохраняет access-токен, refresh-токен и идентичность пользователя
// в хранилище и возвращает сессию. На отказ бэкенда возвращает
// ErrInvalidCredentials с сообщением из тела ответа.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.Session, error) {
	const op = "session.Login"

	lg := log.From(ctx)

	resp, err := m.client.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body: loginRequest{
			Usuario:  username,
			Password: password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !resp.Success() {
		lg.Warn("login_rejected",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%s: %s: %w", op, rest.ErrorMessage(resp.Body), ErrInvalidCredentials)
	}

	var parsed loginResponse
	if err := resp.DecodeJSON(&parsed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, rest.ErrUnavailable)
	}

	if err := m.persist(ctx, parsed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_ok",
		slog.String("op", op),
		slog.Int64("user_id", parsed.User.ID),
		slog.String("role", string(parsed.User.Role)),
	)

	return &models.Session{
		AccessToken:  parsed.Tokens.Access,
		RefreshToken: parsed.Tokens.Refresh,
		User:         parsed.User,
	}, nil
}

// persist сохраняет все три поля сессии в хранилище.
func (m *Manager) persist(ctx context.Context, parsed loginResponse) error {
	const op = "session.persist"

	rawUser, err := json.Marshal(parsed.User)
	if err != nil {
		return fmt.Errorf("%s: marshal user: %w", op, err)
	}

	if err := m.store.Set(ctx, storage.KeyAuthToken, parsed.Tokens.Access); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.store.Set(ctx, storage.KeyRefreshToken, parsed.Tokens.Refresh); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.store.Set(ctx, storage.KeyUser, string(rawUser)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CurrentAccessToken всегда перечитывает access-токен из хранилища.
// Отсутствие токена — ErrNotAuthenticated.
func (m *Manager) CurrentAccessToken(ctx context.Context) (string, error) {
	const op = "session.CurrentAccessToken"

	token, err := m.store.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// CurrentUser возвращает идентичность текущего пользователя из хранилища.
func (m *Manager) CurrentUser(ctx context.Context) (*models.User, error) {
	const op = "session.CurrentUser"

	raw, err := m.store.Get(ctx, storage.KeyUser)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%s: unmarshal user: %w", op, err)
	}

	return &user, nil
}

// IsAuthenticated — есть ли в хранилище access-токен.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, err := m.CurrentAccessToken(ctx)
	return err == nil && token != ""
}

// Logout уничтожает сессию в хранилище. Бэкенд не вызывается.
func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.Logout"

	if err := m.clearSession(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("logout_ok", slog.String("op", op))

	return nil
}

// clearSession удаляет все поля сессии; используется и при терминальном
// отказе обновления.
func (m *Manager) clearSession(ctx context.Context) error {
	const op = "session.clearSession"

	keys := []string{storage.KeyAuthToken, storage.KeyRefreshToken, storage.KeyUser}

	var firstErr error
	for _, key := range keys {
		if err := m.store.Remove(ctx, key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", op, err)
		}
	}

	return firstErr
}
