package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
)

const kindUnauthenticated = "unauthenticated"

var errUnauthenticated = errors.New("missing or invalid credentials")

var statusByKind = map[string]int{
	domain.KindValidation:      http.StatusUnprocessableEntity,
	domain.KindCapacity:        http.StatusConflict,
	domain.KindDeadline:        http.StatusConflict,
	domain.KindExternalService: http.StatusBadGateway,
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindConflict:        http.StatusConflict,
	domain.KindForbidden:       http.StatusForbidden,
	domain.KindInternal:        http.StatusInternalServerError,
	kindUnauthenticated:        http.StatusUnauthorized,
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, errUnauthenticated) {
		return http.StatusUnauthorized
	}
	if status, ok := statusByKind[domain.ErrorKind(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.ErrorKind(err)
	if errors.Is(err, errUnauthenticated) {
		kind = kindUnauthenticated
	}
	status := StatusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestIDFrom(r.Context()), "error", err)
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}
