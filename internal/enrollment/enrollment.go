// enrollment владеет жизненным циклом участия в проекте: подача заявки,
// вывод UI-статуса, рассмотрение заявок админом, фоновая сверка статуса
// и оптимистичная локальная симуляция join/leave, когда авторитетный
// эндпоинт недоступен.
//
// Политика ошибок (важно):
//   - сбои на путях чтения (статус, ростер) деградируют до безопасного
//     дефолта (available / пустой список) и не пропагируются — один
//     неудачный вызов не должен ломать рендеринг;
//   - сбои на путях записи (Apply, Review, Join/Leave вне fallback-класса)
//     всегда возвращаются вызывающей стороне с сообщением бэкенда.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/go-servicehours-client/internal/models"
	"github.com/pribylovaa/go-servicehours-client/internal/pkg/log"
	"github.com/pribylovaa/go-servicehours-client/internal/storage"
	"github.com/pribylovaa/go-servicehours-client/internal/transport/rest"
)

var (
	// ErrValidation — поля заявки пусты или некорректны; ловится на клиенте
	// до обращения к сети, где возможно. Класс ValidationError.
	ErrValidation = errors.New("invalid application fields")

	// ErrAlreadyApplied — активная заявка на проект уже существует.
	// Класс ConflictError.
	ErrAlreadyApplied = errors.New("already applied")

	// ErrProjectFull — проект набрал максимум участников. Класс ConflictError.
	ErrProjectFull = errors.New("project is full")

	// ErrProjectClosed — проект не принимает заявки. Класс ConflictError.
	ErrProjectClosed = errors.New("project is not accepting applications")

	// ErrAlreadyJoined — локальная симуляция уже содержит проект.
	// Класс ConflictError.
	ErrAlreadyJoined = errors.New("already joined")

	// ErrNotJoined — локальная симуляция не содержит проект.
	// Класс ConflictError.
	ErrNotJoined = errors.New("not joined")

	// ErrForbidden — операция требует роли admin. Проверку выполняет бэкенд;
	// клиент не дублирует её. Класс AuthorizationError.
	ErrForbidden = errors.New("forbidden")
)

// Session — контракт менеджера сессии, который нужен координатору:
// исполнение аутентифицированных запросов и текущая идентичность.
// Реализуется session.Manager.
type Session interface {
	Do(ctx context.Context, req rest.Request) (*rest.Response, error)
	CurrentUser(ctx context.Context) (*models.User, error)
}

// Coordinator — координатор заявок и участия.
type Coordinator struct {
	sess     Session
	store    storage.Store
	interval time.Duration
}

// New создаёт координатор. interval — период фоновой сверки статуса.
func New(sess Session, store storage.Store, interval time.Duration) *Coordinator {
	return &Coordinator{
		sess:     sess,
		store:    store,
		interval: interval,
	}
}

// ApplyInput — поля новой заявки.
type ApplyInput struct {
	ProjectID          int64
	Motivation         string
	HoursPerWeek       int
	PreferredStartDate string
}

type applyRequest struct {
	Project            int64  `json:"project"`
	Motivation         string `json:"motivation"`
	HoursPerWeek       int    `json:"available_hours_per_week"`
	PreferredStartDate string `json:"start_date_preference,omitempty"`
}

// Apply подаёт заявку на участие в проекте.
//
// Мотивация и часы проверяются на клиенте до похода в сеть (defense in
// depth); источник истины про конфликты (AlreadyApplied/ProjectFull/
// ProjectClosed) — бэкенд, его отказ классифицируется по тексту сообщения
// (см. translate.go).
func (c *Coordinator) Apply(ctx context.Context, in ApplyInput) (*models.Application, error) {
	const op = "enrollment.Apply"

	if strings.TrimSpace(in.Motivation) == "" || in.HoursPerWeek <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrValidation)
	}

	resp, err := c.sess.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "/applications",
		Body: applyRequest{
			Project:            in.ProjectID,
			Motivation:         in.Motivation,
			HoursPerWeek:       in.HoursPerWeek,
			PreferredStartDate: in.PreferredStartDate,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !resp.Success() {
		return nil, fmt.Errorf("%s: %w", op, writeError(resp))
	}

	var app models.Application
	if err := resp.DecodeJSON(&app); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("application_created",
		slog.String("op", op),
		slog.Int64("project_id", in.ProjectID),
		slog.Int64("application_id", app.ID),
	)

	return &app, nil
}

// MyApplications возвращает все заявки текущего пользователя.
func (c *Coordinator) MyApplications(ctx context.Context) ([]models.Application, error) {
	const op = "enrollment.MyApplications"

	resp, err := c.sess.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Path:   "/applications/my-applications",
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !resp.Success() {
		return nil, fmt.Errorf("%s: %w", op, writeError(resp))
	}

	var apps []models.Application
	if err := resp.DecodeJSON(&apps); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return apps, nil
}

// StatusFor возвращает UI-статус проекта для текущего пользователя.
//
// Путь чтения: любой сбой деградирует до available и логируется — ошибка
// не пропагируется. Вызывающим сторонам стоит мемоизировать результат на
// цикл рендеринга, а не дёргать метод на каждый проект.
func (c *Coordinator) StatusFor(ctx context.Context, projectID int64) models.UIStatus {
	const op = "enrollment.StatusFor"

	apps, err := c.MyApplications(ctx)
	if err != nil {
		log.From(ctx).Warn("status_degraded",
			slog.String("op", op),
			slog.Int64("project_id", projectID),
			slog.String("err", err.Error()),
		)
		return models.UIAvailable
	}

	return models.ProjectUIStatus(apps, projectID)
}

type reviewRequest struct {
	Status      models.Status `json:"status"`
	ReviewNotes string        `json:"review_notes,omitempty"`
}

// Review переводит заявку в approved/rejected. Только для админов: роль
// проверяет бэкенд, на отказ возвращается ErrForbidden.
func (c *Coordinator) Review(ctx context.Context, applicationID int64, decision models.Status, notes string) (*models.Application, error) {
	const op = "enrollment.Review"

	if decision != models.StatusApproved && decision != models.StatusRejected {
		return nil, fmt.Errorf("%s: decision %q: %w", op, decision, ErrValidation)
	}

	resp, err := c.sess.Do(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/applications/%d/review", applicationID),
		Body: reviewRequest{
			Status:      decision,
			ReviewNotes: notes,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !resp.Success() {
		return nil, fmt.Errorf("%s: %w", op, writeError(resp))
	}

	var app models.Application
	if err := resp.DecodeJSON(&app); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("application_reviewed",
		slog.String("op", op),
		slog.Int64("application_id", applicationID),
		slog.String("decision", string(decision)),
	)

	return &app, nil
}
