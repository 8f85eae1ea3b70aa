package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeQuery = "SELECT 1 FROM documents LIMIT 1"

func newMockDB(t *testing.T) (*HealthChecker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHealthChecker("test", SQLProbe("database", db, probeQuery)), mock
}

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker("test")

	rr := httptest.NewRecorder()
	checker.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, StatusHealthy, body["status"])
}

func TestSQLProbe(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		checker, mock := newMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1 FROM documents").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		status := checker.Check(context.Background())
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Equal(t, "test", status.Version)
		assert.Equal(t, StatusHealthy, status.Dependencies["database"].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table is healthy", func(t *testing.T) {
		checker, mock := newMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1 FROM documents").WillReturnRows(sqlmock.NewRows([]string{"1"}))

		status := checker.Check(context.Background())
		assert.Equal(t, StatusHealthy, status.Status)
	})

	t.Run("ping fails", func(t *testing.T) {
		checker, mock := newMockDB(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		rr := httptest.NewRecorder()
		checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		var status HealthStatus
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Equal(t, "connection refused", status.Dependencies["database"].Message)
	})

	t.Run("schema missing", func(t *testing.T) {
		checker, mock := newMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1 FROM documents").WillReturnError(errors.New(`relation "documents" does not exist`))

		status := checker.Check(context.Background())
		assert.Equal(t, StatusUnhealthy, status.Status)
		assert.Contains(t, status.Dependencies["database"].Message, "query failed")
	})
}

func TestHealthChecker_ProbeSeverity(t *testing.T) {
	failing := func(err error) func(context.Context) error {
		return func(context.Context) error { return err }
	}

	tests := []struct {
		name   string
		probes []Probe
		want   string
	}{
		{name: "no probes", want: StatusHealthy},
		{
			name:   "optional failure degrades",
			probes: []Probe{{Name: "redis", Check: failing(errors.New("down"))}},
			want:   StatusDegraded,
		},
		{
			name:   "critical degraded",
			probes: []Probe{{Name: "database", Critical: true, Check: failing(ErrDegraded)}},
			want:   StatusDegraded,
		},
		{
			name: "critical failure wins",
			probes: []Probe{
				{Name: "redis", Check: failing(errors.New("down"))},
				{Name: "database", Critical: true, Check: failing(errors.New("down"))},
			},
			want: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewHealthChecker("test", tt.probes...).Check(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Len(t, status.Dependencies, len(tt.probes))
		})
	}
}

func TestRedisProbe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	checker := NewHealthChecker("test", RedisProbe(client))
	status := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, StatusHealthy, status.Dependencies["redis"].Status)

	mr.Close()
	status = checker.Check(context.Background())
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, StatusUnhealthy, status.Dependencies["redis"].Status)

	rr := httptest.NewRecorder()
	checker.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRegisterHealthRoutes(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, NewHealthChecker("test"))

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}
