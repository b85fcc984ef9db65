package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/authz"
	"github.com/wardenhq/warden/pkg/store"
)

// failingStore reports an unhealthy backend.
type failingStore struct {
	authz.Store
}

func (failingStore) HealthCheck(context.Context) error {
	return assert.AnError
}

func TestLiveness(t *testing.T) {
	checker := NewHealthChecker(store.NewMemoryStore(), nil)

	rec := httptest.NewRecorder()
	checker.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), StatusHealthy)
}

func TestReadinessHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	checker := NewHealthChecker(store.NewMemoryStore(), client)
	status := checker.Check(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Contains(t, status.Dependencies, "store")
	assert.Contains(t, status.Dependencies, "redis")
}

func TestReadinessDegradedWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	checker := NewHealthChecker(store.NewMemoryStore(), client)
	status := checker.Check(context.Background())
	assert.Equal(t, StatusDegraded, status.Status)
}

func TestReadinessUnhealthyStore(t *testing.T) {
	checker := NewHealthChecker(failingStore{}, nil)

	rec := httptest.NewRecorder()
	checker.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterHealthRoutes(t *testing.T) {
	router := mux.NewRouter()
	RegisterHealthRoutes(router, NewHealthChecker(store.NewMemoryStore(), nil))

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
