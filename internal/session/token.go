package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessExpiresAt возвращает момент истечения текущего access-токена,
// прочитанный из claim exp без проверки подписи. Токен для клиента опаковый:
// значение пригодно только для отображения («сессия истекает через…»),
// решений по нему не принимается — источник истины про истечение это 401
// от бэкенда.
//
// Если токен не является JWT или exp отсутствует — нулевое время без ошибки.
func (m *Manager) AccessExpiresAt(ctx context.Context) (time.Time, error) {
	const op = "session.AccessExpiresAt"

	token, err := m.CurrentAccessToken(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, nil
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, nil
	}

	return exp.Time, nil
}
