package enrollment

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-servicehours-client/internal/models"
	"github.com/pribylovaa/go-servicehours-client/internal/storage/memory"
	"github.com/pribylovaa/go-servicehours-client/internal/transport/rest"
)

// fakeSession — управляемая замена session.Manager: возвращает заранее
// заданный ответ и считает обращения.
type fakeSession struct {
	mu    sync.Mutex
	calls int

	user *models.User
	do   func(req rest.Request) (*rest.Response, error)
}

func (f *fakeSession) Do(_ context.Context, req rest.Request) (*rest.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	return f.do(req)
}

func (f *fakeSession) CurrentUser(_ context.Context) (*models.User, error) {
	return f.user, nil
}

func (f *fakeSession) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func testUser() *models.User {
	return &models.User{ID: 7, DisplayName: "Ana", Role: models.RoleStudent, Carnet: "C-2023-114"}
}

func respondJSON(status int, body string) func(rest.Request) (*rest.Response, error) {
	return func(rest.Request) (*rest.Response, error) {
		return &rest.Response{StatusCode: status, Body: []byte(body)}, nil
	}
}

func newCoordinator(sess *fakeSession) *Coordinator {
	return New(sess, memory.New(), 30*time.Second)
}

func TestApply_ClientSideValidation(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusCreated, `{}`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ApplyInput
	}{
		{"empty_motivation", ApplyInput{ProjectID: 1, Motivation: "   ", HoursPerWeek: 5}},
		{"zero_hours", ApplyInput{ProjectID: 1, Motivation: "quiero ayudar", HoursPerWeek: 0}},
		{"negative_hours", ApplyInput{ProjectID: 1, Motivation: "quiero ayudar", HoursPerWeek: -3}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Apply(ctx, tc.in)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	// Валидация не ходит в сеть.
	require.Equal(t, 0, sess.callCount())
}

func TestApply_OK(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusCreated, `{
		"id": 41,
		"project": 5,
		"applicant": 7,
		"status": "pending",
		"motivation": "quiero ayudar",
		"available_hours_per_week": 6
	}`)}
	c := newCoordinator(sess)

	app, err := c.Apply(context.Background(), ApplyInput{
		ProjectID:    5,
		Motivation:   "quiero ayudar",
		HoursPerWeek: 6,
	})
	require.NoError(t, err)
	require.Equal(t, int64(41), app.ID)
	require.Equal(t, int64(5), app.ProjectID)
	require.Equal(t, models.StatusPending, app.Status)
	require.Equal(t, 1, sess.callCount())
}

func TestApply_ConflictTranslation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			"already_applied",
			http.StatusBadRequest,
			`{"error":"Ya has aplicado a este proyecto"}`,
			ErrAlreadyApplied,
		},
		{
			"project_closed",
			http.StatusBadRequest,
			`{"non_field_errors":["El proyecto no está aceptando aplicaciones"]}`,
			ErrProjectClosed,
		},
		{
			"project_full",
			http.StatusBadRequest,
			`{"detail":"El proyecto alcanzó el cupo máximo de participantes"}`,
			ErrProjectFull,
		},
		{
			"plain_validation",
			http.StatusBadRequest,
			`{"detail":"La motivación es obligatoria"}`,
			ErrValidation,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sess := &fakeSession{user: testUser(), do: respondJSON(tc.status, tc.body)}
			c := newCoordinator(sess)

			_, err := c.Apply(context.Background(), ApplyInput{
				ProjectID:    5,
				Motivation:   "quiero ayudar",
				HoursPerWeek: 6,
			})
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestApply_NetworkErrorPropagated(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: func(rest.Request) (*rest.Response, error) {
		return nil, rest.ErrUnavailable
	}}
	c := newCoordinator(sess)

	// Apply — путь записи без fallback: сетевая ошибка уходит наверх.
	_, err := c.Apply(context.Background(), ApplyInput{
		ProjectID:    5,
		Motivation:   "quiero ayudar",
		HoursPerWeek: 6,
	})
	require.ErrorIs(t, err, rest.ErrUnavailable)
}

func TestMyApplications_OK(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusOK, `[
		{"id": 41, "project": 5, "status": "pending"},
		{"id": 42, "project": 9, "status": "approved"}
	]`)}
	c := newCoordinator(sess)

	apps, err := c.MyApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)
	require.Equal(t, models.StatusApproved, apps[1].Status)
}

func TestStatusFor_ProjectsStatuses(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusOK, `[
		{"id": 41, "project": 5, "status": "pending"},
		{"id": 42, "project": 9, "status": "rejected"}
	]`)}
	c := newCoordinator(sess)
	ctx := context.Background()

	require.Equal(t, models.UIApplied, c.StatusFor(ctx, 5))
	require.Equal(t, models.UIRejected, c.StatusFor(ctx, 9))
	require.Equal(t, models.UIAvailable, c.StatusFor(ctx, 123))
}

func TestStatusFor_DegradesToAvailable(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: func(rest.Request) (*rest.Response, error) {
		return nil, rest.ErrUnavailable
	}}
	c := newCoordinator(sess)

	// Путь чтения: сбой не пропагируется, статус деградирует до available.
	require.Equal(t, models.UIAvailable, c.StatusFor(context.Background(), 5))
}

func TestReview_InvalidDecision(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusOK, `{}`)}
	c := newCoordinator(sess)

	_, err := c.Review(context.Background(), 41, models.StatusPending, "")
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, 0, sess.callCount())
}

func TestReview_Forbidden(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusForbidden,
		`{"detail":"No tienes permiso para realizar esta acción."}`)}
	c := newCoordinator(sess)

	_, err := c.Review(context.Background(), 41, models.StatusApproved, "ok")
	require.ErrorIs(t, err, ErrForbidden)
	require.Contains(t, err.Error(), "No tienes permiso")
}

func TestReview_OK(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{user: testUser(), do: respondJSON(http.StatusOK, `{
		"id": 41,
		"project": 5,
		"status": "approved",
		"review_notes": "bienvenida"
	}`)}
	c := newCoordinator(sess)

	app, err := c.Review(context.Background(), 41, models.StatusApproved, "bienvenida")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, app.Status)
	require.Equal(t, "bienvenida", app.ReviewNotes)
}
