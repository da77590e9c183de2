package http

import (
	"context"
	"net/http"
	"strconv"
)

// UserIDHeader carries the caller id set by an upstream authentication
// gateway. It is trusted as-is and only consulted when bearer tokens are
// not configured.
const UserIDHeader = "X-User-ID"

type contextKey int

const (
	userIDKey contextKey = iota
	requestIDKey
)

// GetUserIDFromRequest reads the caller id from the request header.
func GetUserIDFromRequest(r *http.Request) (int64, error) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		return 0, errUnauthenticated
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errUnauthenticated
	}
	return id, nil
}

// UserIDFromContext returns the caller id stored by requireUser.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func withUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
