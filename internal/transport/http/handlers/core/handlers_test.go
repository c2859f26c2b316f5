package corehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmoffice/internal/domain/audit"
	"farmoffice/internal/domain/auth"
	"farmoffice/internal/domain/core"
	"farmoffice/internal/transport/http/middleware"
)

const testSecret = "test-secret"

// fakeStore implements the farm and worker parts of core.StoreAPI; the
// embedded interface panics if a test reaches anything else.
type fakeStore struct {
	core.StoreAPI
	mu      sync.Mutex
	seq     int
	farms   map[string]core.Farm
	workers map[string]core.Worker
}

func newFakeStore() *fakeStore {
	return &fakeStore{farms: map[string]core.Farm{}, workers: map[string]core.Worker{}}
}

func (f *fakeStore) nextID() string {
	f.seq++
	return fmt.Sprintf("id-%d", f.seq)
}

func (f *fakeStore) ListFarms(context.Context) ([]core.Farm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []core.Farm{}
	for _, farm := range f.farms {
		out = append(out, farm)
	}
	return out, nil
}

func (f *fakeStore) GetFarm(_ context.Context, id string) (core.Farm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	farm, ok := f.farms[id]
	if !ok {
		return core.Farm{}, core.ErrNotFound
	}
	return farm, nil
}

func (f *fakeStore) CreateFarm(_ context.Context, farm core.Farm) (core.Farm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	farm.ID = f.nextID()
	f.farms[farm.ID] = farm
	return farm, nil
}

func (f *fakeStore) UpdateFarm(_ context.Context, farm core.Farm) (core.Farm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.farms[farm.ID]; !ok {
		return core.Farm{}, core.ErrNotFound
	}
	f.farms[farm.ID] = farm
	return farm, nil
}

func (f *fakeStore) DeleteFarm(_ context.Context, id string) (core.Farm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	farm, ok := f.farms[id]
	if !ok {
		return core.Farm{}, core.ErrNotFound
	}
	delete(f.farms, id)
	return farm, nil
}

func (f *fakeStore) ListWorkers(context.Context) ([]core.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []core.Worker{}
	for _, worker := range f.workers {
		out = append(out, worker)
	}
	return out, nil
}

func (f *fakeStore) CreateWorker(_ context.Context, worker core.Worker) (core.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.workers {
		if existing.Name == worker.Name {
			return core.Worker{}, core.ErrDuplicate
		}
	}
	worker.ID = f.nextID()
	f.workers[worker.ID] = worker
	return worker, nil
}

type auditLog struct {
	mu      sync.Mutex
	changes []audit.Change
}

func (a *auditLog) Record(_ context.Context, change audit.Change) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.changes = append(a.changes, change)
	return nil
}

func newRouter(store core.StoreAPI, recorder audit.Recorder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth(testSecret))
	NewHandler(store, recorder, auth.StaticPermissions{}, nil).RegisterRoutes(r)
	return r
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "user-" + role, Name: role, Role: role}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, h http.Handler, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", bearer(t, role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestFarmCRUD(t *testing.T) {
	store := newFakeStore()
	log := &auditLog{}
	router := newRouter(store, log)

	rec := do(t, router, http.MethodPost, "/farms", auth.RoleAdmin, map[string]any{"name": "Boa Vista", "city": "Patos"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created core.Farm
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	assert.True(t, created.Active, "farms default to active")

	rec = do(t, router, http.MethodPut, "/farms/"+created.ID, auth.RoleAdmin, map[string]any{"name": "Boa Vista II", "active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/farms/"+created.ID, auth.RoleOperator, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched core.Farm
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &fetched))
	assert.Equal(t, "Boa Vista II", fetched.Name)
	assert.False(t, fetched.Active)

	rec = do(t, router, http.MethodDelete, "/farms/"+created.ID, auth.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/farms/"+created.ID, auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Len(t, log.changes, 3)
	assert.Equal(t, "core.farm.create", log.changes[0].Action)
	assert.Equal(t, "core.farm.update", log.changes[1].Action)
	assert.Equal(t, "core.farm.delete", log.changes[2].Action)
	assert.Equal(t, "user-Admin", log.changes[0].ActorID)
}

func TestFarmValidationAndPermissions(t *testing.T) {
	router := newRouter(newFakeStore(), nil)

	rec := do(t, router, http.MethodPost, "/farms", auth.RoleAdmin, map[string]any{"city": "Patos"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode(t, rec).Error.Code)

	rec = do(t, router, http.MethodPost, "/farms", auth.RoleOperator, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodGet, "/farms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPut, "/farms/missing", auth.RoleAdmin, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServiceValidation(t *testing.T) {
	router := newRouter(newFakeStore(), nil)

	rec := do(t, router, http.MethodPost, "/services", auth.RoleAdmin, map[string]any{"name": "Colheita", "price": -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodPost, "/services", auth.RoleAdmin, map[string]any{"name": "Colheita"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkerCreateAndVisibility(t *testing.T) {
	router := newRouter(newFakeStore(), nil)

	rec := do(t, router, http.MethodPost, "/workers", auth.RoleAdmin, map[string]any{
		"name": "Ana", "registered": true, "registeredAt": "2024-03-01", "numberOfDependents": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/workers", auth.RoleAdmin, map[string]any{"name": "Ana"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/workers", auth.RoleAdmin, map[string]any{"name": "Bia", "numberOfDependents": -1, "registeredAt": "ontem"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields, _ := decode(t, rec).Error.Details["fields"].([]any)
	assert.Len(t, fields, 2)

	rec = do(t, router, http.MethodGet, "/workers", auth.RoleOperator, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var workers []core.Worker
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &workers))
	require.Len(t, workers, 1)
	assert.False(t, workers[0].Registered, "operators do not see registration data")
	assert.Zero(t, workers[0].Dependents)

	rec = do(t, router, http.MethodGet, "/workers", auth.RoleAdmin, nil)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &workers))
	assert.True(t, workers[0].Registered)
	assert.Equal(t, 2, workers[0].Dependents)
}
