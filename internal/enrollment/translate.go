package enrollment

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-servicehours-client/internal/transport/rest"
)

// writeError классифицирует не-2xx ответ на путях записи.
//
// Подтипы конфликтов бэкенд различает только текстом сообщения —
// структурированных кодов у него нет. Хрупкая связка по подстрокам
// намеренно изолирована в этом файле: поменяется текст бэкенда —
// править придётся только здесь.
func writeError(resp *rest.Response) error {
	message := rest.ErrorMessage(resp.Body)

	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: %w", message, ErrForbidden)
	}

	if sentinel := conflictFromMessage(message); sentinel != nil {
		return fmt.Errorf("%s: %w", message, sentinel)
	}

	if resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("%s: %w", message, ErrValidation)
	}

	// Сообщение бэкенда отдаём вызывающей стороне как есть.
	return fmt.Errorf("backend rejected request (%d): %s", resp.StatusCode, message)
}

// conflictFromMessage сопоставляет испанские сообщения бэкенда
// с подтипами ConflictError. nil — сообщение не про конфликт.
func conflictFromMessage(message string) error {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "ya has aplicado"):
		return ErrAlreadyApplied
	case strings.Contains(lower, "no está aceptando"):
		return ErrProjectClosed
	case strings.Contains(lower, "cupo máximo"), strings.Contains(lower, "proyecto está lleno"):
		return ErrProjectFull
	default:
		return nil
	}
}

// shouldSimulate решает, переключаться ли на локальную симуляцию join/leave.
// Fallback срабатывает только на классе TransientError: сетевой сбой,
// 404 (эндпоинт не реализован) или 5xx. Остальные отказы — настоящие
// ответы бэкенда и пропагируются.
func shouldSimulate(resp *rest.Response, err error) bool {
	if err != nil {
		return errors.Is(err, rest.ErrUnavailable)
	}

	return resp.StatusCode == http.StatusNotFound || resp.IsTransient()
}
