package models

// Role — роль пользователя на платформе.
type Role string

const (
	// RoleStudent — студент: подаёт заявки и присоединяется к проектам.
	RoleStudent Role = "student"
	// RoleAdmin — администратор: рассматривает заявки.
	RoleAdmin Role = "admin"
)

// IsAdmin сообщает, имеет ли роль права рассмотрения заявок.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User — запись идентичности текущего пользователя, как её отдаёт бэкенд
// при логине. Хранится в клиентском хранилище в виде JSON (ключ storage.KeyUser).
type User struct {
	// ID — идентификатор пользователя на бэкенде.
	ID int64 `json:"id"`
	// DisplayName — отображаемое имя.
	DisplayName string `json:"display_name"`
	// Role — роль (student/admin).
	Role Role `json:"role"`
	// Carnet — внешний идентификатор (номер карнета студента).
	Carnet string `json:"carnet"`
}
