package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard/backend/internal/countdown"
	"dashboard/backend/internal/db"
	apperrors "dashboard/backend/internal/errors"
	"dashboard/backend/internal/handler"
	"dashboard/backend/internal/model"
	"dashboard/backend/internal/repository"
	"dashboard/backend/internal/router"
	"dashboard/backend/internal/service"
	"dashboard/backend/internal/widget"
)

var (
	_ countdown.TimerAPI = (*Client)(nil)
	_ widget.Source      = (*Client)(nil)
)

func newServer(t *testing.T) (*httptest.Server, clock.FakeClock) {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, currentFile, _, _ := runtime.Caller(0)
	require.NoError(t, db.RunMigrations(database, db.SQLite, filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")))

	clk := clock.NewFake()
	clk.Set(time.Now())
	authService := service.NewAuthService(repository.NewUserRepository(database, db.SQLite), "secret", time.Hour, clk, nil)
	timerService := service.NewTimerService(repository.NewTimerRepository(database, db.SQLite), clk, nil, nil, nil)
	engine := router.New(authService, handler.NewAuthHandler(authService), handler.NewTimerHandler(timerService, clk, 4), router.Options{})

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv, clk
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv, clk := newServer(t)
	c := New(srv.URL, srv.Client())

	user, err := c.Register(ctx, "watcher@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "watcher@example.com", user.Email)

	id, err := c.CreateTimer(ctx, "Tea", 180)
	require.NoError(t, err)
	require.NoError(t, c.StartTimer(ctx, id))

	clk.Add(20 * time.Second)
	got, err := c.GetTimer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StateRunning, got.State)
	assert.Equal(t, 160, got.RemainingSeconds)
	require.NotNil(t, got.EndTime)

	require.NoError(t, c.PauseTimer(ctx, id, 161))
	timers, err := c.ListTimers(ctx)
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, model.StatePaused, timers[0].State)
	assert.Equal(t, 161, timers[0].RemainingSeconds)
	assert.Nil(t, timers[0].EndTime)

	duration := 600
	stopped := model.StateStopped
	require.NoError(t, c.UpdateTimer(ctx, id, model.TimerPatch{
		DurationSeconds:  &duration,
		RemainingSeconds: &duration,
		State:            &stopped,
		ClearEndTime:     true,
	}))
	got, err = c.GetTimer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 600, got.DurationSeconds)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 1)
	assert.Equal(t, "10:00", summary.Rows[0].Display)

	require.NoError(t, c.DeleteTimer(ctx, id))
	err = c.ResetTimer(ctx, id)
	require.Error(t, err)
	apiErr, ok := err.(*apperrors.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Timer not found", apiErr.Message)
}

func TestClientUnauthenticated(t *testing.T) {
	srv, _ := newServer(t)
	c := New(srv.URL, srv.Client())

	_, err := c.ListTimers(context.Background())
	require.Error(t, err)
	apiErr, ok := err.(*apperrors.APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Not authenticated", apiErr.Message)
}

func TestPatchBodyClearsEndTime(t *testing.T) {
	name := "x"
	body := patchBody(model.TimerPatch{Name: &name, ClearEndTime: true})
	assert.Equal(t, "x", body["name"])
	v, ok := body["endTime"]
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = body["state"]
	assert.False(t, ok)
}
