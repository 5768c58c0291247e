package enrollment

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-servicehours-client/internal/models"
	"github.com/pribylovaa/go-servicehours-client/internal/storage/memory"
	"github.com/pribylovaa/go-servicehours-client/internal/transport/rest"
)

func TestJoin_FallbackOn404(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusNotFound,
		`{"detail":"No encontrado."}`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	msg, err := c.Join(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "joined locally", msg)

	require.True(t, c.HasLocalOverride(ctx, 5))
	require.Equal(t, 1, c.ParticipantCount(ctx, 5, 99))

	roster := c.Participants(ctx, 5, nil)
	require.Len(t, roster, 1)
	require.Equal(t, "Ana", roster[0].DisplayName)
	require.Equal(t, "C-2023-114", roster[0].Carnet)
}

func TestJoin_FallbackOnNetworkError(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: func(rest.Request) (*rest.Response, error) {
		return nil, rest.ErrUnavailable
	}}
	c := newCoordinator(sess)
	ctx := context.Background()

	msg, err := c.Join(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "joined locally", msg)
	require.True(t, c.HasLocalOverride(ctx, 5))
}

func TestJoin_FallbackOnUnexpectedBody(t *testing.T) {
	t.Parallel()

	// 2xx, но тело не разбирается как {message} — путь считается
	// деградировавшим и состояние поддерживается локально.
	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusOK, `{"ok":true}`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	msg, err := c.Join(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "joined locally", msg)
	require.True(t, c.HasLocalOverride(ctx, 5))
}

func TestJoin_ServerMessagePreferred(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusOK,
		`{"message":"Te has unido al proyecto"}`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	msg, err := c.Join(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "Te has unido al proyecto", msg)

	// Авторитетный ответ не создаёт локальной симуляции.
	require.False(t, c.HasLocalOverride(ctx, 5))
	require.Equal(t, 12, c.ParticipantCount(ctx, 5, 12))
}

func TestJoin_RealRejectionNoFallback(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusBadRequest,
		`{"error":"El proyecto no está aceptando aplicaciones"}`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	_, err := c.Join(ctx, 5)
	require.ErrorIs(t, err, ErrProjectClosed)
	require.False(t, c.HasLocalOverride(ctx, 5))
}

func TestJoin_TwiceLocally(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusNotFound, `{}`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	_, err := c.Join(ctx, 5)
	require.NoError(t, err)

	_, err = c.Join(ctx, 5)
	require.ErrorIs(t, err, ErrAlreadyJoined)

	// Повторная попытка не меняет состояние.
	require.Equal(t, 1, c.ParticipantCount(ctx, 5, 0))
	require.Len(t, c.Participants(ctx, 5, nil), 1)
}

func TestLeave_RestoresCounter(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusNotFound, `{}`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	_, err := c.Join(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 1, c.ParticipantCount(ctx, 5, 99))

	msg, err := c.Leave(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "left locally", msg)

	// Счётчик вернулся к нулю, ростер пуст; локальная запись о проекте
	// остаётся и продолжает перекрывать серверные значения.
	require.Equal(t, 0, c.ParticipantCount(ctx, 5, 99))
	require.Empty(t, c.Participants(ctx, 5, []models.ParticipantEntry{{DisplayName: "X"}}))
}

func TestLeave_NotJoinedLocally(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusNotFound, `{}`)}
	c := newCoordinator(sess)

	_, err := c.Leave(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotJoined)
}

func TestParticipants_ServerWhenNoOverride(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusOK,
		`{"message":"ok"}`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	server := []models.ParticipantEntry{
		{DisplayName: "Luis", Carnet: "C-2022-001", JoinedAt: time.Now().UTC()},
	}

	require.False(t, c.HasLocalOverride(ctx, 7))
	require.Equal(t, server, c.Participants(ctx, 7, server))
	require.Equal(t, 1, c.ParticipantCount(ctx, 7, 1))
}

func TestSimulation_SurvivesStoreRoundTrip(t *testing.T) {
	t.Parallel()

	// Два координатора над одним хранилищем: состояние симуляции живёт
	// в store, а не в памяти координатора.
	store := memory.New()
	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusNotFound, `{}`)}

	first := New(sess, store, 30*time.Second)
	ctx := context.Background()

	_, err := first.Join(ctx, 5)
	require.NoError(t, err)

	second := New(sess, store, 30*time.Second)
	require.True(t, second.HasLocalOverride(ctx, 5))
	require.Equal(t, 1, second.ParticipantCount(ctx, 5, 0))
}
