package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/security"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestID tags each request with an id, reusing the caller's when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", requestIDFrom(r.Context()))
	})
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				writeError(w, r, fmt.Errorf("panic: %v", p))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authenticator resolves the caller from a bearer token, or from the
// gateway header when no token manager is configured.
type authenticator struct {
	tokens security.TokenManager
}

func (a authenticator) userID(r *http.Request) (int64, error) {
	if a.tokens == nil {
		return GetUserIDFromRequest(r)
	}
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return 0, errUnauthenticated
	}
	claims, err := a.tokens.ValidateToken(raw)
	if err != nil {
		logger.Debug("Rejected bearer token", "error", err, "request_id", requestIDFrom(r.Context()))
		return 0, errUnauthenticated
	}
	return claims.UserID, nil
}

// requireUser rejects requests without a caller id.
func (a authenticator) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.userID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}
