package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"student-records/internal/health"
	"student-records/internal/logger"
	"student-records/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func newRouter(p health.Pinger) chi.Router {
	router := chi.NewRouter()
	health.NewHandler(p, metrics.NewMock().Health, logger.Discard()).RegisterRoutes(router)
	return router
}

func get(router http.Handler, path string) (*httptest.ResponseRecorder, health.HealthResponse) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body health.HealthResponse
	_ = json.NewDecoder(w.Body).Decode(&body)
	return w, body
}

func TestHealth(t *testing.T) {
	router := newRouter(pingerFunc(func(context.Context) error { return errors.New("down") }))

	w, body := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body.Status)
}

func TestReady(t *testing.T) {
	t.Run("database up", func(t *testing.T) {
		router := newRouter(pingerFunc(func(context.Context) error { return nil }))

		w, body := get(router, "/ready")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, "up", body.Checks["database"])
	})

	t.Run("database down", func(t *testing.T) {
		router := newRouter(pingerFunc(func(context.Context) error { return errors.New("connection refused") }))

		w, body := get(router, "/ready")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unavailable", body.Status)
		assert.Equal(t, "down", body.Checks["database"])
	})

	t.Run("ping gets a deadline", func(t *testing.T) {
		router := newRouter(pingerFunc(func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		}))

		w, _ := get(router, "/ready")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
