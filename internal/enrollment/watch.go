package enrollment

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-servicehours-client/internal/models"
	"github.com/pribylovaa/go-servicehours-client/internal/pkg/log"
)

// WatchStatus запускает фоновую сверку статуса заявки на проект.
//
// Пока статус applied, координатор перечитывает список заявок с периодом
// interval и публикует каждый переход статуса в возвращаемый канал. Как
// только статус уходит из applied — тикер останавливается и канал
// закрывается: задача останавливает себя сама.
//
// Жизненный цикл привязан к ctx: вызывающая сторона ОБЯЗАНА отменить
// контекст, когда теряет интерес к проекту (уход со страницы), иначе тикер
// продолжит стрелять по мёртвому контексту. Это требование корректности,
// не оптимизация.
//
// Ошибка чтения на тике не завершает сверку и не публикуется как переход:
// тик пропускается, следующий пойдёт по расписанию.
func (c *Coordinator) WatchStatus(ctx context.Context, projectID int64) <-chan models.UIStatus {
	const op = "enrollment.WatchStatus"

	updates := make(chan models.UIStatus, 1)

	go func() {
		defer close(updates)

		lg := log.From(ctx)
		lg.Info("watch_start",
			slog.String("op", op),
			slog.Int64("project_id", projectID),
			slog.Duration("interval", c.interval),
		)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		// Первый замер — сразу: если заявка уже не applied,
		// сверка не нужна вовсе.
		if done := c.pollOnce(ctx, projectID, updates); done {
			lg.Info("watch_stop", slog.String("op", op), slog.Int64("project_id", projectID))
			return
		}

		for {
			select {
			case <-ctx.Done():
				lg.Info("watch_cancelled", slog.String("op", op), slog.Int64("project_id", projectID))
				return
			case <-ticker.C:
				if done := c.pollOnce(ctx, projectID, updates); done {
					lg.Info("watch_stop", slog.String("op", op), slog.Int64("project_id", projectID))
					return
				}
			}
		}
	}()

	return updates
}

// pollOnce — один замер статуса. true — сверка завершена (статус ушёл
// из applied и опубликован).
func (c *Coordinator) pollOnce(ctx context.Context, projectID int64, updates chan<- models.UIStatus) bool {
	const op = "enrollment.pollOnce"

	apps, err := c.MyApplications(ctx)
	if err != nil {
		log.From(ctx).Warn("watch_tick_error",
			slog.String("op", op),
			slog.Int64("project_id", projectID),
			slog.String("err", err.Error()),
		)
		return false
	}

	status := models.ProjectUIStatus(apps, projectID)
	if status == models.UIApplied {
		return false
	}

	select {
	case updates <- status:
	case <-ctx.Done():
	}

	return true
}
