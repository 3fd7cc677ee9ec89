package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	"dashboard/backend/internal/db"
	"dashboard/backend/internal/events"
	"dashboard/backend/internal/handler"
	"dashboard/backend/internal/metrics"
	"dashboard/backend/internal/repository"
	"dashboard/backend/internal/router"
	"dashboard/backend/internal/service"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type timerBody struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	DurationSeconds  int     `json:"durationSeconds"`
	RemainingSeconds int     `json:"remainingSeconds"`
	State            string  `json:"state"`
	EndTime          *string `json:"endTime"`
	DisplayOrder     int     `json:"displayOrder"`
}

type timerEnvelope struct {
	Success bool      `json:"success"`
	Timer   timerBody `json:"timer"`
}

type listEnvelope struct {
	Success bool        `json:"success"`
	Timers  []timerBody `json:"timers"`
}

type summaryEnvelope struct {
	Summary struct {
		Rows []struct {
			ID     string `json:"id"`
			State  string `json:"state"`
			Dimmed bool   `json:"dimmed"`
		} `json:"rows"`
		More      int    `json:"more"`
		MoreLabel string `json:"moreLabel"`
	} `json:"summary"`
}

type apiErrorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	handler http.Handler
	clock   clock.FakeClock
	bus     *events.Bus
}

func TestTimerLifecycle(t *testing.T) {
	srv := setupTestServer(t)
	user := registerUser(t, srv.handler, "user1@example.com", "123456")

	id := createTimer(t, srv.handler, user.Token, "Work", 1500)
	timer := getTimer(t, srv.handler, user.Token, id)
	if timer.State != "stopped" || timer.RemainingSeconds != 1500 {
		t.Fatalf("expected stopped with 1500s, got %s with %d", timer.State, timer.RemainingSeconds)
	}
	if timer.EndTime != nil {
		t.Fatalf("expected no endTime on a stopped timer, got %s", *timer.EndTime)
	}

	status, body := requestJSON(t, srv.handler, http.MethodPost, "/api/timers/"+id+"/start", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d: %s", status, string(body))
	}

	srv.clock.Add(60 * time.Second)
	timer = getTimer(t, srv.handler, user.Token, id)
	if timer.State != "running" {
		t.Fatalf("expected running, got %s", timer.State)
	}
	if timer.RemainingSeconds <= 1430 || timer.RemainingSeconds > 1441 {
		t.Fatalf("expected remaining in (1430, 1441], got %d", timer.RemainingSeconds)
	}

	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/timers/"+id+"/pause", user.Token, map[string]int{
		"remainingSeconds": 1439,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on pause, got %d: %s", status, string(body))
	}
	timer = getTimer(t, srv.handler, user.Token, id)
	if timer.State != "paused" || timer.RemainingSeconds != 1439 || timer.EndTime != nil {
		t.Fatalf("unexpected paused timer: %+v", timer)
	}

	status, _ = requestJSON(t, srv.handler, http.MethodPost, "/api/timers/"+id+"/reset", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d", status)
	}
	timer = getTimer(t, srv.handler, user.Token, id)
	if timer.State != "stopped" || timer.RemainingSeconds != 1500 {
		t.Fatalf("expected reset to 1500s stopped, got %s with %d", timer.State, timer.RemainingSeconds)
	}

	status, _ = requestJSON(t, srv.handler, http.MethodDelete, "/api/timers/"+id, user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", status)
	}
	status, raw := requestJSON(t, srv.handler, http.MethodPost, "/api/timers/"+id+"/start", user.Token, nil)
	assertError(t, status, raw, http.StatusNotFound, "Timer not found")
}

func TestExpiredTimerReportsCompleted(t *testing.T) {
	srv := setupTestServer(t)
	var completions []events.Completion
	srv.bus.Subscribe(func(ev events.Completion) { completions = append(completions, ev) })

	user := registerUser(t, srv.handler, "user1@example.com", "123456")
	id := createTimer(t, srv.handler, user.Token, "Break", 300)
	status, _ := requestJSON(t, srv.handler, http.MethodPost, "/api/timers/"+id+"/start", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}

	srv.clock.Add(5*time.Minute + time.Second)
	list := listTimers(t, srv.handler, user.Token)
	if len(list.Timers) != 1 {
		t.Fatalf("expected one timer, got %d", len(list.Timers))
	}
	if list.Timers[0].State != "completed" || list.Timers[0].RemainingSeconds != 0 {
		t.Fatalf("expected completed with 0s, got %s with %d", list.Timers[0].State, list.Timers[0].RemainingSeconds)
	}

	_ = listTimers(t, srv.handler, user.Token)
	if len(completions) != 1 {
		t.Fatalf("expected exactly one completion event, got %d", len(completions))
	}
	if completions[0].Source != events.SourceReconcile {
		t.Fatalf("expected reconcile source, got %s", completions[0].Source)
	}
}

func TestEditRedefinesDuration(t *testing.T) {
	srv := setupTestServer(t)
	user := registerUser(t, srv.handler, "user1@example.com", "123456")
	id := createTimer(t, srv.handler, user.Token, "Long", 300)

	status, body := requestJSON(t, srv.handler, http.MethodPatch, "/api/timers/"+id, user.Token, map[string]interface{}{
		"durationSeconds":  69060,
		"remainingSeconds": 69060,
		"state":            "stopped",
		"endTime":          nil,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", status, string(body))
	}

	timer := getTimer(t, srv.handler, user.Token, id)
	if timer.DurationSeconds != 69060 || timer.RemainingSeconds != 69060 {
		t.Fatalf("expected 69060s, got duration %d remaining %d", timer.DurationSeconds, timer.RemainingSeconds)
	}
	if timer.Name != "Long" {
		t.Fatalf("partial update changed name to %q", timer.Name)
	}

	status, raw := requestJSON(t, srv.handler, http.MethodPatch, "/api/timers/"+id, user.Token, map[string]interface{}{
		"durationSeconds": 0,
	})
	assertError(t, status, raw, http.StatusBadRequest, "")
}

func TestTimersAreOwnerScoped(t *testing.T) {
	srv := setupTestServer(t)
	user1 := registerUser(t, srv.handler, "user1@example.com", "123456")
	user2 := registerUser(t, srv.handler, "user2@example.com", "123456")

	id := createTimer(t, srv.handler, user1.Token, "Mine", 60)
	if got := listTimers(t, srv.handler, user2.Token); len(got.Timers) != 0 {
		t.Fatalf("expected user2 to see no timers, got %d", len(got.Timers))
	}

	status, raw := requestJSON(t, srv.handler, http.MethodGet, "/api/timers/"+id, user2.Token, nil)
	assertError(t, status, raw, http.StatusNotFound, "Timer not found")

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/timers", "", nil)
	assertError(t, status, raw, http.StatusUnauthorized, "Not authenticated")
}

func TestSummaryOrdersByState(t *testing.T) {
	srv := setupTestServer(t)
	user := registerUser(t, srv.handler, "user1@example.com", "123456")

	stopped := createTimer(t, srv.handler, user.Token, "Stopped", 60)
	running := createTimer(t, srv.handler, user.Token, "Running", 600)
	paused := createTimer(t, srv.handler, user.Token, "Paused", 300)
	requestJSON(t, srv.handler, http.MethodPost, "/api/timers/"+running+"/start", user.Token, nil)
	requestJSON(t, srv.handler, http.MethodPost, "/api/timers/"+paused+"/start", user.Token, nil)
	requestJSON(t, srv.handler, http.MethodPost, "/api/timers/"+paused+"/pause", user.Token, map[string]int{"remainingSeconds": 250})

	status, body := requestJSON(t, srv.handler, http.MethodGet, "/api/timers/summary", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on summary, got %d: %s", status, string(body))
	}
	var resp summaryEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if len(resp.Summary.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(resp.Summary.Rows))
	}
	want := []string{running, paused, stopped}
	for i, row := range resp.Summary.Rows {
		if row.ID != want[i] {
			t.Fatalf("row %d: expected %s, got %s (%s)", i, want[i], row.ID, row.State)
		}
	}
}

func TestReorderTimers(t *testing.T) {
	srv := setupTestServer(t)
	user := registerUser(t, srv.handler, "user1@example.com", "123456")
	a := createTimer(t, srv.handler, user.Token, "A", 60)
	b := createTimer(t, srv.handler, user.Token, "B", 60)

	status, body := requestJSON(t, srv.handler, http.MethodPut, "/api/timers/order", user.Token, map[string][]string{
		"ids": {b, a},
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on reorder, got %d: %s", status, string(body))
	}
	list := listTimers(t, srv.handler, user.Token)
	if list.Timers[0].ID != b || list.Timers[1].ID != a {
		t.Fatalf("unexpected order after reorder: %s, %s", list.Timers[0].Name, list.Timers[1].Name)
	}
}

func TestAlarmSoundServesWAV(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/alarm-sounds/chime", nil)
	recorder := httptest.NewRecorder()
	srv.handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Fatalf("unexpected content type %s", ct)
	}
	if !bytes.HasPrefix(recorder.Body.Bytes(), []byte("RIFF")) {
		t.Fatal("expected a RIFF body")
	}

	status, raw := requestJSON(t, srv.handler, http.MethodGet, "/api/alarm-sounds/gong", "", nil)
	assertError(t, status, raw, http.StatusNotFound, "Alarm sound not found")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	user := registerUser(t, srv.handler, "user1@example.com", "123456")
	createTimer(t, srv.handler, user.Token, "A", 60)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	srv.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "dashboard_timers_operations_total") {
		t.Fatal("expected timer operation counter in metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/timers/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	recorder := httptest.NewRecorder()

	srv.handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(recorder.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("expected PATCH to be allowed: %s", recorder.Header().Get("Access-Control-Allow-Methods"))
	}
}

func setupTestServer(t *testing.T) testServer {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, db.SQLite, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	clk := clock.NewFake()
	clk.Set(time.Now())
	bus := events.NewBus()
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)

	userRepo := repository.NewUserRepository(database, db.SQLite)
	timerRepo := repository.NewTimerRepository(database, db.SQLite)
	authService := service.NewAuthService(userRepo, "test-secret", 24*time.Hour, clk, nil)
	timerService := service.NewTimerService(timerRepo, clk, bus, recorder, nil)

	authHandler := handler.NewAuthHandler(authService)
	timerHandler := handler.NewTimerHandler(timerService, clk, 4)

	engine := router.New(authService, authHandler, timerHandler, router.Options{
		CORSOrigins: []string{"http://localhost:5173"},
		Gatherer:    registry,
	})
	return testServer{handler: engine, clock: clk, bus: bus}
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func createTimer(t *testing.T, server http.Handler, token, name string, duration int) string {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/timers", token, map[string]interface{}{
		"name":            name,
		"durationSeconds": duration,
	})
	if status != http.StatusCreated {
		t.Fatalf("create timer failed with status %d: %s", status, string(body))
	}
	var resp struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal create response: %v", err)
	}
	if !resp.Success || resp.ID == "" {
		t.Fatalf("unexpected create response: %s", string(body))
	}
	return resp.ID
}

func getTimer(t *testing.T, server http.Handler, token, id string) timerBody {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/timers/"+id, token, nil)
	if status != http.StatusOK {
		t.Fatalf("get timer failed with status %d: %s", status, string(body))
	}
	var resp timerEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal timer response: %v", err)
	}
	return resp.Timer
}

func listTimers(t *testing.T, server http.Handler, token string) listEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/timers", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list timers failed with status %d: %s", status, string(body))
	}
	var resp listEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal list response: %v", err)
	}
	return resp
}

func assertError(t *testing.T, status int, body []byte, wantStatus int, wantMessage string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, status, string(body))
	}
	var resp apiErrorEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if resp.Success {
		t.Fatal("expected success=false on error")
	}
	if wantMessage != "" && resp.Error.Message != wantMessage {
		t.Fatalf("expected message %q, got %q", wantMessage, resp.Error.Message)
	}
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
