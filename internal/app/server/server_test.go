package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"farmoffice/internal/domain/audit"
	"farmoffice/internal/domain/auth"
	"farmoffice/internal/domain/core"
	"farmoffice/internal/domain/worklog"
	"farmoffice/internal/platform/config"
	"farmoffice/internal/platform/metrics"
	"farmoffice/internal/transport/http/middleware"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type users struct {
	mu    sync.Mutex
	users []auth.User
}

func (s *users) CountUsers(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *users) FindByLogin(_ context.Context, login string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Login == login {
			return user, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (s *users) GetUser(_ context.Context, id string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (s *users) ListUsers(context.Context) ([]auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.User(nil), s.users...), nil
}

func (s *users) CreateUser(_ context.Context, user auth.User) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = fmt.Sprintf("user-%d", len(s.users)+1)
	s.users = append(s.users, user)
	return user, nil
}

func (s *users) CreateFirstUser(ctx context.Context, user auth.User) (auth.User, error) {
	if count, _ := s.CountUsers(ctx); count > 0 {
		return auth.User{}, auth.ErrSetupDone
	}
	return s.CreateUser(ctx, user)
}

func (s *users) UpdateUser(context.Context, auth.User) (auth.User, error) {
	return auth.User{}, errors.New("not supported")
}

func (s *users) DeleteUser(context.Context, string) error {
	return errors.New("not supported")
}

// workers implements only the worker part of core.StoreAPI.
type workers struct {
	core.StoreAPI
	mu      sync.Mutex
	workers []core.Worker
}

func (s *workers) ListWorkers(context.Context) ([]core.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Worker(nil), s.workers...), nil
}

func (s *workers) CreateWorker(_ context.Context, worker core.Worker) (core.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	worker.ID = fmt.Sprintf("worker-%d", len(s.workers)+1)
	s.workers = append(s.workers, worker)
	return worker, nil
}

type workLogs struct {
	mu      sync.Mutex
	entries []worklog.Entry
}

func (s *workLogs) CreateBatch(_ context.Context, entries []worklog.Entry) ([]worklog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]worklog.Entry, 0, len(entries))
	for _, entry := range entries {
		entry.ID = fmt.Sprintf("log-%d", len(s.entries)+1)
		s.entries = append(s.entries, entry)
		out = append(out, entry)
	}
	return out, nil
}

func (s *workLogs) FindInRange(_ context.Context, start, end string) ([]worklog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []worklog.Entry
	for _, entry := range s.entries {
		if entry.Date >= start && entry.Date <= end {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *workLogs) FindByMonth(ctx context.Context, year, month int) ([]worklog.Entry, error) {
	start, end, err := worklog.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	return s.FindInRange(ctx, start, end)
}

func (s *workLogs) Delete(context.Context, string) (worklog.Entry, error) {
	return worklog.Entry{}, worklog.ErrNotFound
}

type trail struct {
	mu      sync.Mutex
	changes []audit.Change
}

func (t *trail) Record(_ context.Context, change audit.Change) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changes = append(t.changes, change)
	return nil
}

func (t *trail) List(context.Context, audit.Filter, bool, int, int) ([]audit.Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	events := make([]audit.Event, 0, len(t.changes))
	for _, change := range t.changes {
		events = append(events, audit.Event{Action: change.Action, EntityType: change.EntityType, EntityID: change.EntityID})
	}
	return events, nil
}

func (t *trail) Count(context.Context, audit.Filter) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.changes), nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Addr:               "127.0.0.1:0",
		DatabaseURL:        "postgres://unused",
		JWTSecret:          "server-test-secret",
		TokenTTL:           time.Hour,
		FrontendDir:        t.TempDir(),
		Environment:        "test",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
		ShutdownTimeout:    time.Second,
	}
}

func testServices(ready func(context.Context) error) Services {
	return Services{
		Auth:        auth.NewService(&users{}, "server-test-secret", time.Hour),
		Core:        &workers{},
		WorkLogs:    &workLogs{},
		Audit:       &trail{},
		Idempotency: middleware.NewMemoryIdempotencyStore(),
		Ready:       ready,
	}
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOperationalEndpoints(t *testing.T) {
	cfg := testConfig(t)
	collector := metrics.New()
	router := NewRouter(cfg, zap.NewNop(), collector, testServices(func(context.Context) error {
		return errors.New("db down")
	}))

	rec := call(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = call(t, router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = call(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"requestsTotal":2`)

	cfg.MetricsEnabled = false
	router = NewRouter(cfg, zap.NewNop(), nil, testServices(nil))
	rec = call(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	router := NewRouter(testConfig(t), nil, nil, testServices(nil))

	for _, path := range []string{"/api/v1/farms", "/api/v1/worklogs?startDate=2025-08-01&endDate=2025-08-31", "/api/v1/payroll", "/api/v1/me"} {
		rec := call(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := call(t, router, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}

func TestSPAFallback(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.FrontendDir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.FrontendDir, "app.js"), []byte("console.log(1)"), 0o600))
	router := NewRouter(cfg, nil, nil, testServices(nil))

	rec := call(t, router, http.MethodGet, "/app.js", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = call(t, router, http.MethodGet, "/payroll/agosto", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")

	rec = call(t, router, http.MethodPost, "/anything", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayrollJourney(t *testing.T) {
	services := testServices(nil)
	router := NewRouter(testConfig(t), nil, nil, services)

	rec := call(t, router, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
		"name": "Dona Maria", "login": "maria", "password": "segredo1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
		"name": "Outro", "login": "outro", "password": "segredo2",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login": "maria", "password": "segredo1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	token := login.Data.Token
	require.NotEmpty(t, token)

	rec = call(t, router, http.MethodPost, "/api/v1/workers", token, map[string]any{
		"name": "Ana", "registered": true, "numberOfDependents": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = call(t, router, http.MethodPost, "/api/v1/workers", token, map[string]any{"name": "Bruno"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/api/v1/worklogs", token, []map[string]any{
		{"date": "2025-08-01", "workerName": "Ana", "productionQuantity": 10, "unitPrice": 2},
		{"date": "2025-08-02", "workerName": "Ana", "status": "Falta"},
		{"date": "2025-08-01", "workerName": "Bruno", "productionQuantity": 3, "unitPrice": 5},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodGet, "/api/v1/payroll?startDate=2025-08-01&endDate=2025-08-31&category=registrados", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var payroll struct {
		Data map[string]struct {
			IsRegistered       bool           `json:"isRegistered"`
			NumberOfDependents int            `json:"numberOfDependents"`
			Days               map[string]any `json:"days"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payroll))
	require.Len(t, payroll.Data, 1)
	ana := payroll.Data["Ana"]
	assert.True(t, ana.IsRegistered)
	assert.Equal(t, 2, ana.NumberOfDependents)
	assert.Equal(t, map[string]any{"2025-08-01": float64(20), "2025-08-02": "FALTA"}, ana.Days)

	rec = call(t, router, http.MethodGet, "/api/v1/reports/monthly?year=2025&month=8", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"productionValue":35`)

	rec = call(t, router, http.MethodGet, "/api/v1/audit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("X-Total-Count"))
	assert.True(t, strings.Contains(rec.Body.String(), "worklog.create"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := testConfig(t)
	app := &App{Config: cfg, Logger: zap.NewNop(), Router: NewRouter(cfg, nil, nil, testServices(nil))}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, listener) }()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + listener.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	client.CloseIdleConnections()
	app.Close()
}

func TestAPIRateLimitPerActor(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitPerMinute = 3
	router := NewRouter(cfg, nil, nil, testServices(nil))

	for i := 0; i < 3; i++ {
		rec := call(t, router, http.MethodGet, "/api/v1/farms", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "request %d", i+1)
	}
	rec := call(t, router, http.MethodGet, "/api/v1/farms", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	token, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: "op-1", Role: auth.RoleOperator}, time.Hour)
	require.NoError(t, err)
	rec = call(t, router, http.MethodGet, "/api/v1/workers", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "a signed-in user has its own bucket")

	rec = call(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "operational endpoints are not limited")
}
