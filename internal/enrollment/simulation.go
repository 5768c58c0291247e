package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pribylovaa/go-servicehours-client/internal/models"
	"github.com/pribylovaa/go-servicehours-client/internal/pkg/log"
	"github.com/pribylovaa/go-servicehours-client/internal/storage"
)

// Локальная симуляция участия — теневое состояние в клиентском хранилище.
//
// Инвариант: симуляция никогда не авторитетна. Она создаётся лениво при
// первом симулированном join и живёт, пока её не перезапишет следующий
// симулированный join/leave; авторитетные данные её не инвалидируют
// (правило слияния — «локальное, если есть, побеждает», см. Participants).
// Сборки мусора нет — известный риск устаревания, принятый осознанно.

// simulateJoin добавляет проект в локальную симуляцию: id в joinedProjects,
// счётчик +1, запись текущего пользователя в ростер.
func (c *Coordinator) simulateJoin(ctx context.Context, projectID int64) error {
	const op = "enrollment.simulateJoin"

	joined, err := c.joinedProjects(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if slices.Contains(joined, projectID) {
		return fmt.Errorf("%s: %w", op, ErrAlreadyJoined)
	}

	user, err := c.sess.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	counters, err := c.projectCounters(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rosters, err := c.projectParticipants(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	joined = append(joined, projectID)
	counters[projectID]++
	rosters[projectID] = append(rosters[projectID], models.ParticipantEntry{
		DisplayName: user.DisplayName,
		Carnet:      user.Carnet,
		JoinedAt:    time.Now().UTC(),
	})

	if err := c.saveSimulation(ctx, joined, counters, rosters); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("simulated_join",
		slog.String("op", op),
		slog.Int64("project_id", projectID),
		slog.Int("counter", counters[projectID]),
	)

	return nil
}

// simulateLeave убирает проект из симуляции: id из joinedProjects, счётчик -1
// (не ниже нуля), последняя запись из ростера. Какая именно запись уходит —
// произвольно (last-in); известная потеря точности.
func (c *Coordinator) simulateLeave(ctx context.Context, projectID int64) error {
	const op = "enrollment.simulateLeave"

	joined, err := c.joinedProjects(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	idx := slices.Index(joined, projectID)
	if idx < 0 {
		return fmt.Errorf("%s: %w", op, ErrNotJoined)
	}

	counters, err := c.projectCounters(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rosters, err := c.projectParticipants(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	joined = slices.Delete(joined, idx, idx+1)

	if counters[projectID] > 0 {
		counters[projectID]--
	}

	if roster := rosters[projectID]; len(roster) > 0 {
		rosters[projectID] = roster[:len(roster)-1]
	}

	if err := c.saveSimulation(ctx, joined, counters, rosters); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("simulated_leave",
		slog.String("op", op),
		slog.Int64("project_id", projectID),
		slog.Int("counter", counters[projectID]),
	)

	return nil
}

// HasLocalOverride — есть ли у симуляции хоть какая-то запись о проекте.
// Это явное, тестируемое правило приоритета двухуровневого чтения:
// локальная запись, если существует, перекрывает авторитетные данные.
func (c *Coordinator) HasLocalOverride(ctx context.Context, projectID int64) bool {
	if joined, err := c.joinedProjects(ctx); err == nil && slices.Contains(joined, projectID) {
		return true
	}

	if counters, err := c.projectCounters(ctx); err == nil {
		if _, ok := counters[projectID]; ok {
			return true
		}
	}

	if rosters, err := c.projectParticipants(ctx); err == nil {
		if _, ok := rosters[projectID]; ok {
			return true
		}
	}

	return false
}

// ParticipantCount — число участников проекта: симулированный счётчик,
// если для проекта есть локальная запись, иначе серверное значение.
func (c *Coordinator) ParticipantCount(ctx context.Context, projectID int64, serverCount int) int {
	if !c.HasLocalOverride(ctx, projectID) {
		return serverCount
	}

	counters, err := c.projectCounters(ctx)
	if err != nil {
		return serverCount
	}

	return counters[projectID]
}

// Participants — ростер проекта по тому же правилу приоритета.
func (c *Coordinator) Participants(ctx context.Context, projectID int64, server []models.ParticipantEntry) []models.ParticipantEntry {
	if !c.HasLocalOverride(ctx, projectID) {
		return server
	}

	rosters, err := c.projectParticipants(ctx)
	if err != nil {
		return server
	}

	return rosters[projectID]
}

// joinedProjects читает список локально присоединённых проектов.
func (c *Coordinator) joinedProjects(ctx context.Context) ([]int64, error) {
	const op = "enrollment.joinedProjects"

	raw, err := c.store.Get(ctx, storage.KeyJoinedProjects)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var joined []int64
	if err := json.Unmarshal([]byte(raw), &joined); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return joined, nil
}

// projectCounters читает симулированные счётчики участников.
func (c *Coordinator) projectCounters(ctx context.Context) (map[int64]int, error) {
	const op = "enrollment.projectCounters"

	raw, err := c.store.Get(ctx, storage.KeyProjectCounters)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return map[int64]int{}, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counters := map[int64]int{}
	if err := json.Unmarshal([]byte(raw), &counters); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return counters, nil
}

// projectParticipants читает симулированные ростеры.
func (c *Coordinator) projectParticipants(ctx context.Context) (map[int64][]models.ParticipantEntry, error) {
	const op = "enrollment.projectParticipants"

	raw, err := c.store.Get(ctx, storage.KeyProjectParticipants)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return map[int64][]models.ParticipantEntry{}, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rosters := map[int64][]models.ParticipantEntry{}
	if err := json.Unmarshal([]byte(raw), &rosters); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rosters, nil
}

// saveSimulation записывает все три ключа симуляции.
// Запись не атомарна между ключами: допустимо при одной активной сессии
// на экземпляр хранилища.
func (c *Coordinator) saveSimulation(ctx context.Context, joined []int64, counters map[int64]int, rosters map[int64][]models.ParticipantEntry) error {
	const op = "enrollment.saveSimulation"

	rawJoined, err := json.Marshal(joined)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rawCounters, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rawRosters, err := json.Marshal(rosters)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.store.Set(ctx, storage.KeyJoinedProjects, string(rawJoined)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.store.Set(ctx, storage.KeyProjectCounters, string(rawCounters)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.store.Set(ctx, storage.KeyProjectParticipants, string(rawRosters)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
