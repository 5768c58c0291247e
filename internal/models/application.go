package models

import "time"

// Status — серверный статус заявки на участие в проекте.
// Полный жизненный цикл принадлежит бэкенду; клиент только создаёт заявку,
// читает список и (для админов) переводит её в approved/rejected.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// UIStatus — упрощённый статус для интерфейса: «могу подать / жду / принят /
// отклонён». Многие серверные статусы схлопываются в один UI-статус —
// интерфейсу никогда не нужен полный жизненный цикл.
type UIStatus string

const (
	UIAvailable UIStatus = "available"
	UIApplied   UIStatus = "applied"
	UIApproved  UIStatus = "approved"
	UIRejected  UIStatus = "rejected"
)

// UIStatusOf проецирует серверный статус на UI-статус.
//
// Маппинг:
//   - pending                          -> applied
//   - approved/in_progress/completed   -> approved
//   - rejected                         -> rejected
//   - cancelled                        -> available (намеренно: разрешает повторную подачу)
//   - неизвестный статус               -> available (безопасный дефолт)
func UIStatusOf(s Status) UIStatus {
	switch s {
	case StatusPending:
		return UIApplied
	case StatusApproved, StatusInProgress, StatusCompleted:
		return UIApproved
	case StatusRejected:
		return UIRejected
	case StatusCancelled:
		return UIAvailable
	default:
		return UIAvailable
	}
}

// ProjectUIStatus выбирает UI-статус проекта по списку заявок текущего
// пользователя. Если заявки на проект нет — available. Если заявок несколько
// (повторная подача после cancelled), приоритет у «активной»: любая заявка,
// проецирующаяся не в available, перекрывает отменённые.
func ProjectUIStatus(apps []Application, projectID int64) UIStatus {
	result := UIAvailable

	for _, app := range apps {
		if app.ProjectID != projectID {
			continue
		}

		if ui := UIStatusOf(app.Status); ui != UIAvailable {
			result = ui
		}
	}

	return result
}

// Application — заявка студента на участие в проекте («application»).
// Владелец записи — бэкенд; поля сериализуются в его формате.
type Application struct {
	// ID — идентификатор заявки.
	ID int64 `json:"id"`
	// ProjectID — идентификатор проекта.
	ProjectID int64 `json:"project"`
	// ApplicantID — идентификатор подавшего заявку.
	ApplicantID int64 `json:"applicant"`
	// Status — серверный статус заявки.
	Status Status `json:"status"`
	// Motivation — мотивационный текст заявки.
	Motivation string `json:"motivation"`
	// HoursPerWeek — доступные часы в неделю.
	HoursPerWeek int `json:"available_hours_per_week"`
	// PreferredStartDate — желаемая дата старта (формат бэкенда, YYYY-MM-DD).
	PreferredStartDate string `json:"start_date_preference"`
	// AppliedAt — момент подачи заявки.
	AppliedAt time.Time `json:"applied_at"`
	// ReviewedAt — момент рассмотрения (nil, пока заявка не рассмотрена).
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	// ReviewNotes — комментарий рассмотревшего.
	ReviewNotes string `json:"review_notes,omitempty"`
}
