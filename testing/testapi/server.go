package testapi

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"student-records/internal/logger"
	"student-records/internal/metrics"
	"student-records/internal/student"
	"student-records/testing/testdb"

	"github.com/go-chi/chi/v5"
)

// Server is a running API backed by a private in-memory database.
type Server struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits is the number of requests the server has answered.
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// NewHandler is the student API router over a fresh in-memory database.
func NewHandler(t *testing.T) http.Handler {
	t.Helper()

	m := metrics.NewMock()
	repo := student.NewRepository(testdb.NewSQLite(t), m)
	svc := student.NewService(repo, student.NewValidator(), nil, logger.Discard(), m)

	router := chi.NewRouter()
	student.NewHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func NewServer(t *testing.T) *Server {
	t.Helper()
	router := NewHandler(t)

	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}
