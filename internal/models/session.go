package models

// Session — клиентская сессия, возвращаемая при успешном логине.
//
// Описание:
//   - AccessToken — короткоживущий bearer-токен для подписи запросов;
//   - RefreshToken — долгоживущий секрет, используемый только для выпуска
//     нового access-токена; не ротируется при обновлении;
//   - User — идентичность текущего пользователя.
//
// Инвариант: наличие AccessToken в хранилище — единственный признак
// аутентифицированной сессии; отсутствие RefreshToken делает любой отказ
// обновления терминальным (принудительный logout).
type Session struct {
	// AccessToken — bearer-токен для авторизации запросов.
	AccessToken string
	// RefreshToken — секрет для обновления access-токена.
	RefreshToken string
	// User — идентичность текущего пользователя.
	User User
}
