package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-servicehours-client/internal/pkg/log"
	"github.com/pribylovaa/go-servicehours-client/internal/storage"
	"github.com/pribylovaa/go-servicehours-client/internal/transport/rest"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// Do — единая точка исполнения аутентифицированных запросов.
//
// Протокол (на одну логическую операцию):
//  1. подписать запрос текущим access-токеном из хранилища;
//  2. на 401 — выполнить refresh: без refresh-токена или при его отказе
//     сессия уничтожается и возвращается ErrSessionExpired;
//  3. на успех refresh — повторить исходный запрос ровно один раз
//     с новым токеном;
//  4. повторный 401 — терминален: уничтожить сессию, ErrSessionExpired.
//     Больше одной попытки refresh на операцию не делается.
func (m *Manager) Do(ctx context.Context, req rest.Request) (*rest.Response, error) {
	const op = "session.Do"

	lg := log.From(ctx)

	token, err := m.CurrentAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req.Token = token
	resp, err := m.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	lg.Debug("access_token_rejected",
		slog.String("op", op),
		slog.String("path", req.Path),
	)

	if err := m.refresh(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err = m.CurrentAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req.Token = token
	resp, err = m.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Новый токен тоже отвергнут — ретраев больше не делаем.
		lg.Warn("retry_unauthorized",
			slog.String("op", op),
			slog.String("path", req.Path),
		)
		_ = m.clearSession(ctx)
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	return resp, nil
}

// refresh выпускает новый access-токен по refresh-токену.
// Перезаписывается только access-токен: refresh-токен бэкенд не ротирует.
// Любой отказ терминален: сессия уничтожается, возвращается ErrSessionExpired.
func (m *Manager) refresh(ctx context.Context) error {
	const op = "session.refresh"

	lg := log.From(ctx)

	refreshToken, err := m.store.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_token_missing", slog.String("op", op))
			_ = m.clearSession(ctx)
			return fmt.Errorf("%s: %w", op, ErrSessionExpired)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := m.client.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "/auth/token/refresh",
		Body:   refreshRequest{Refresh: refreshToken},
	})
	if err != nil {
		lg.Warn("refresh_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		_ = m.clearSession(ctx)
		return fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	if !resp.Success() {
		lg.Warn("refresh_rejected",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)
		_ = m.clearSession(ctx)
		return fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	var parsed refreshResponse
	if err := resp.DecodeJSON(&parsed); err != nil || parsed.Access == "" {
		lg.Warn("refresh_body_invalid", slog.String("op", op))
		_ = m.clearSession(ctx)
		return fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	if err := m.store.Set(ctx, storage.KeyAuthToken, parsed.Access); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("access_token_refreshed", slog.String("op", op))

	return nil
}
