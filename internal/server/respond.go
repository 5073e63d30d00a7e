package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Houeta/homecare-api/internal/auth"
	"github.com/Houeta/homecare-api/internal/lib/logger/sl"
	"github.com/Houeta/homecare-api/internal/lifecycle"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/Houeta/homecare-api/internal/storage"
)

// errorResponse is the uniform error body; the message is surfaced to the
// initiating actor as-is.
type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.ErrorContext(r.Context(), "failed to write response", sl.Err(err))
	}
}

// respondError maps a service error onto the HTTP taxonomy: 400 for bad
// input, 401 for auth failures, 403 for capability violations, 404 for
// unknown ids, 409 for illegal or conflicting transitions.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, lifecycle.ErrUnknownStatus),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrUnsupportedType):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, lifecycle.ErrNotPermitted),
		errors.Is(err, models.ErrAccountInactive),
		errors.Is(err, models.ErrContractorUnapproved):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrContractorNotUsable):
		status = http.StatusConflict
	default:
		s.log.ErrorContext(r.Context(), "request failed", sl.Err(err),
			slog.String("path", r.URL.Path))
		message = "internal server error"
	}

	s.respondJSON(w, r, status, errorResponse{Message: message})
}

// decodeJSON parses a request body into dst, mapping malformed payloads to
// the bad-input taxonomy.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.ErrInvalidInput
	}
	return nil
}
