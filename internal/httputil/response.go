package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"student-records/internal/apperror"
)

// RespondWithError writes {"error": message} with the given status.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithAppError maps err to its HTTP status. Internal failures are
// logged with their cause and answered with a generic message.
func RespondWithAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperror.KindInternal {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	RespondWithError(w, appErr.Kind.HTTPStatus(), appErr.Message)
}
