package payrollhandler

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmoffice/internal/domain/auth"
	"farmoffice/internal/domain/payroll"
	"farmoffice/internal/domain/worklog"
	"farmoffice/internal/transport/http/middleware"
)

const testSecret = "test-secret"

func ptr(v float64) *float64 { return &v }

type logs []worklog.Entry

func (l logs) FindInRange(_ context.Context, start, end string) ([]worklog.Entry, error) {
	var out []worklog.Entry
	for _, entry := range l {
		if entry.Date >= start && entry.Date <= end {
			out = append(out, entry)
		}
	}
	return out, nil
}

type directory []payroll.WorkerProfile

func (d directory) ListAll(context.Context) ([]payroll.WorkerProfile, error) { return d, nil }

type failing struct{}

func (failing) Compute(context.Context, payroll.Query) (payroll.Result, error) {
	return nil, errors.New("db down")
}

func newRouter(service Computer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth(testSecret))
	NewHandler(service, auth.StaticPermissions{}, nil).RegisterRoutes(r)
	return r
}

func fixture() Computer {
	return payroll.NewService(
		logs{
			{Date: "2025-08-01", WorkerName: "Ana", ProductionQuantity: ptr(10), UnitPrice: ptr(2)},
			{Date: "2025-08-02", WorkerName: "Ana", Status: worklog.StatusAbsent},
			{Date: "2025-08-01", WorkerName: "Bruno", ProductionQuantity: ptr(3), UnitPrice: ptr(5)},
			{Date: "2025-08-01", WorkerName: "Carla", ProductionQuantity: ptr(1), UnitPrice: ptr(1)},
			{Date: "2025-09-01", WorkerName: "Ana", ProductionQuantity: ptr(1), UnitPrice: ptr(1)},
		},
		directory{
			{Name: "Ana", IsRegistered: true, NumberOfDependents: 2},
			{Name: "Bruno"},
		},
		nil,
	)
}

func get(t *testing.T, h http.Handler, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "u-" + role, Role: role}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestComputeRegisteredOnly(t *testing.T) {
	rec := get(t, newRouter(fixture()), "/payroll?startDate=2025-08-01&endDate=2025-08-31&category=registrados", auth.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"success": true,
		"data": {"Ana": {"isRegistered": true, "numberOfDependents": 2, "days": {"2025-08-01": 20, "2025-08-02": "FALTA"}}},
		"requestId": "`+rec.Header().Get("X-Request-ID")+`"
	}`, rec.Body.String())
}

func TestComputeUnknownCategoryMeansAll(t *testing.T) {
	rec := get(t, newRouter(fixture()), "/payroll?startDate=2025-08-01&endDate=2025-08-31&category=todos", auth.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"Ana"`)
	assert.Contains(t, body, `"Bruno"`)
	assert.NotContains(t, body, `"Carla"`, "workers missing from the directory are skipped")
}

func TestComputeValidation(t *testing.T) {
	router := newRouter(fixture())
	tests := []struct {
		name  string
		query string
		field string
	}{
		{name: "missing category", query: "startDate=2025-08-01&endDate=2025-08-31", field: "category"},
		{name: "missing start", query: "endDate=2025-08-31&category=registrados", field: "startDate"},
		{name: "bad end", query: "startDate=2025-08-01&endDate=31-08-2025&category=registrados", field: "endDate"},
		{name: "reversed", query: "startDate=2025-09-01&endDate=2025-08-01&category=registrados", field: "startDate"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, router, "/payroll?"+tc.query, auth.RoleAdmin)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"field":"`+tc.field+`"`)
		})
	}
}

func TestPayrollRequiresAdmin(t *testing.T) {
	router := newRouter(fixture())
	path := "/payroll?startDate=2025-08-01&endDate=2025-08-31&category=registrados"
	assert.Equal(t, http.StatusForbidden, get(t, router, path, auth.RoleOperator).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, router, path, "").Code)
}

func TestComputeFailure(t *testing.T) {
	rec := get(t, newRouter(failing{}), "/payroll?startDate=2025-08-01&endDate=2025-08-31&category=registrados", auth.RoleAdmin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestSummary(t *testing.T) {
	rec := get(t, newRouter(fixture()), "/payroll/summary?startDate=2025-08-01&endDate=2025-08-31&category=x", auth.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":35`)
	assert.Contains(t, rec.Body.String(), `"absences":1`)
}

func TestExports(t *testing.T) {
	router := newRouter(fixture())

	rec := get(t, router, "/payroll/export.csv?startDate=2025-08-01&endDate=2025-08-31&category=nao_registrados", auth.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "folha-2025-08-01-2025-08-31-nao_registrados.csv")
	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"worker", "registered", "dependents", "date", "value"},
		{"Bruno", "false", "0", "2025-08-01", "15.00"},
	}, rows)

	rec = get(t, router, "/payroll/export.pdf?startDate=2025-08-01&endDate=2025-08-31&category=registrados", auth.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}
