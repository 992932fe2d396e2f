package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	passing = CheckFunc(func(context.Context) error { return nil })
	failing = CheckFunc(func(context.Context) error { return errors.New("bucket missing") })
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		probes []Probe
		code   int
		status string
	}{
		{
			name:   "all healthy",
			probes: []Probe{{Name: "database", Critical: true, Checker: passing}},
			code:   http.StatusOK,
			status: "healthy",
		},
		{
			name: "archive down degrades",
			probes: []Probe{
				{Name: "database", Critical: true, Checker: passing},
				{Name: "archive", Detail: "reports", Checker: failing},
			},
			code:   http.StatusOK,
			status: "degraded",
		},
		{
			name: "database down",
			probes: []Probe{
				{Name: "database", Critical: true, Checker: failing},
				{Name: "archive", Checker: failing},
			},
			code:   http.StatusServiceUnavailable,
			status: "unhealthy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthHandler(tt.probes)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			var body HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Len(t, body.Checks, len(tt.probes))
		})
	}
}

func TestHealthReportsProbeDetail(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	HealthHandler([]Probe{
		{Name: "database", Detail: "postgres", Critical: true, Checker: &StoreChecker{DB: db}},
		{Name: "archive", Detail: "reports", Checker: failing},
	})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CheckStatus{Status: "healthy", Detail: "postgres", Critical: true, LatencyMS: body.Checks["database"].LatencyMS},
		body.Checks["database"])
	assert.Equal(t, "bucket missing", body.Checks["archive"].Message)
	assert.Equal(t, "reports", body.Checks["archive"].Detail)
	assert.False(t, body.Checks["archive"].Critical)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadinessIgnoresOptionalProbes(t *testing.T) {
	optionalDown := []Probe{
		{Name: "database", Critical: true, Checker: passing},
		{Name: "sentiment", Checker: failing},
	}
	rec := httptest.NewRecorder()
	ReadinessHandler(optionalDown)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	criticalDown := []Probe{{Name: "database", Critical: true, Checker: failing}}
	rec = httptest.NewRecorder()
	ReadinessHandler(criticalDown)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}
