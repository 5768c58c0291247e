package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-servicehours-client/internal/pkg/log"
	"github.com/pribylovaa/go-servicehours-client/internal/transport/rest"
)

// messageResponse — ожидаемое тело успешного join/leave.
type messageResponse struct {
	Message string `json:"message"`
}

// Join присоединяет текущего пользователя к открытому проекту
// (поток без рассмотрения, в отличие от Apply).
//
// Если авторитетный эндпоинт отвечает 404/5xx, недоступен по сети или
// возвращает тело, которое не разбирается как {message}, координатор
// переключается на локальную симуляцию участия. Остальные 4xx —
// настоящие отказы и возвращаются с сообщением бэкенда.
func (c *Coordinator) Join(ctx context.Context, projectID int64) (string, error) {
	const op = "enrollment.Join"

	lg := log.From(ctx)

	resp, err := c.sess.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/projects/%d/join", projectID),
	})

	if shouldSimulate(resp, err) {
		lg.Warn("join_fallback",
			slog.String("op", op),
			slog.Int64("project_id", projectID),
			slog.String("reason", fallbackReason(resp, err)),
		)

		if err := c.simulateJoin(ctx, projectID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return "joined locally", nil
	}

	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !resp.Success() {
		return "", fmt.Errorf("%s: %w", op, writeError(resp))
	}

	var parsed messageResponse
	if err := resp.DecodeJSON(&parsed); err != nil || parsed.Message == "" {
		// Успешный статус, но тело не той формы — считаем путь
		// деградировавшим и поддерживаем состояние локально.
		lg.Warn("join_body_unexpected",
			slog.String("op", op),
			slog.Int64("project_id", projectID),
		)

		if err := c.simulateJoin(ctx, projectID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return "joined locally", nil
	}

	return parsed.Message, nil
}

// Leave — выход из проекта; симметричен Join, включая fallback.
func (c *Coordinator) Leave(ctx context.Context, projectID int64) (string, error) {
	const op = "enrollment.Leave"

	lg := log.From(ctx)

	resp, err := c.sess.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/projects/%d/leave", projectID),
	})

	if shouldSimulate(resp, err) {
		lg.Warn("leave_fallback",
			slog.String("op", op),
			slog.Int64("project_id", projectID),
			slog.String("reason", fallbackReason(resp, err)),
		)

		if err := c.simulateLeave(ctx, projectID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return "left locally", nil
	}

	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !resp.Success() {
		return "", fmt.Errorf("%s: %w", op, writeError(resp))
	}

	var parsed messageResponse
	if err := resp.DecodeJSON(&parsed); err != nil || parsed.Message == "" {
		lg.Warn("leave_body_unexpected",
			slog.String("op", op),
			slog.Int64("project_id", projectID),
		)

		if err := c.simulateLeave(ctx, projectID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return "left locally", nil
	}

	return parsed.Message, nil
}

// fallbackReason — краткая причина переключения на симуляцию для логов.
func fallbackReason(resp *rest.Response, err error) string {
	if err != nil {
		return "network"
	}

	return fmt.Sprintf("status %d", resp.StatusCode)
}
