package student

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"student-records/internal/httputil"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON body")

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/students", func(r chi.Router) {
		r.Post("/", h.CreateStudent)
		r.Get("/", h.ListStudents)
		r.Get("/search", h.SearchStudents)
		r.Get("/{id}", h.GetStudent)
		r.Put("/{id}", h.UpdateStudent)
		r.Delete("/{id}", h.DeleteStudent)
	})
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.logger.InfoContext(r.Context(), "creating student", "email", req.Email)
	student, err := h.service.Create(r.Context(), req)
	if err != nil {
		httputil.RespondWithAppError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, student)
}

// ListStudents serves GET /api/students with an optional ?search= filter.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("search"))
}

// SearchStudents is the deprecated GET /api/students/search?q= form.
func (h *Handler) SearchStudents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	term := query.Get("q")
	if term == "" {
		term = query.Get("search")
	}

	successor := "/api/students?search=" + url.QueryEscape(term)
	w.Header().Set("Deprecation", "true")
	w.Header().Set("Link", "<"+successor+`>; rel="successor-version"`)

	h.list(w, r, term)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, search string) {
	h.logger.InfoContext(r.Context(), "listing students", "search", search)

	students, err := h.service.List(r.Context(), ListOptions{Search: search})
	if err != nil {
		httputil.RespondWithAppError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, students)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	student, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.RespondWithAppError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, student)
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IsEmpty() {
		httputil.RespondWithError(w, http.StatusBadRequest, "No update data provided")
		return
	}

	h.logger.InfoContext(r.Context(), "updating student", "student_id", id)
	student, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httputil.RespondWithAppError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, student)
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "deleting student", "student_id", id)
	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.RespondWithAppError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseID writes the 400 itself when the path id is not a positive integer.
func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid student ID format")
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}
