package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"student-records/internal/config"
	"student-records/internal/events"
	"student-records/internal/logger"
	"student-records/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		Server: config.ServerConfig{
			Port:        "0",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		Events:   config.EventsConfig{Driver: "none"},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	ctx := context.Background()

	a, err := New(ctx, testConfig(), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(ctx) })
	return a
}

func TestApp_Routes(t *testing.T) {
	a := newTestApp(t)
	handler := a.Handler()

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := serve(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodPost, "/api/students", `{"name":"Alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(http.MethodGet, "/api/students?search=ali", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 1)

	w = serve(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="POST"`)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = serve(http.MethodOptions, "/api/students", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApp_RecoversFromPanics(t *testing.T) {
	a := newTestApp(t)
	a.router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNewPublisher_FallsBackToNoop(t *testing.T) {
	m := metrics.NewMock().Messaging
	log := logger.Discard()

	p := newPublisher(config.EventsConfig{Driver: "none"}, m, log)
	assert.IsType(t, events.NoopPublisher{}, p)

	p = newPublisher(config.EventsConfig{
		Driver: "nats",
		NATS:   config.NATSConfig{URL: "nats://127.0.0.1:1", Subject: "students.events"},
	}, m, log)
	assert.IsType(t, events.NoopPublisher{}, p)

	p = newPublisher(config.EventsConfig{
		Driver: "kafka",
		Kafka:  config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}, Topic: "students.events"},
	}, m, log)
	assert.IsType(t, events.NoopPublisher{}, p)
}
