package models

import "time"

// ParticipantEntry — запись участника проекта в локальной симуляции.
// Симуляция — теневое, неавторитетное состояние: она существует только для
// того, чтобы интерфейс оставался рабочим, пока авторитетный эндпоинт
// join/leave недоступен.
type ParticipantEntry struct {
	// DisplayName — отображаемое имя участника.
	DisplayName string `json:"display_name"`
	// Carnet — номер карнета участника.
	Carnet string `json:"carnet"`
	// JoinedAt — момент локального присоединения (UTC).
	JoinedAt time.Time `json:"joined_at"`
}
