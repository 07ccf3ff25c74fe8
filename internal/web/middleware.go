// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/remixblog/remixblog/internal/auth"
	"github.com/remixblog/remixblog/internal/observability"
)

type contextKey int

const userContextKey contextKey = iota

// UserFromContext returns the authenticated user for the request, if any.
func UserFromContext(ctx context.Context) (*auth.User, bool) {
	user, ok := ctx.Value(userContextKey).(*auth.User)
	return user, ok
}

// withUser resolves the session cookie and attaches the current user to the
// request context. Resolution never fails a request: an invalid or stale
// session simply yields an anonymous request.
func (h *Handlers) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.sessions.Resolve(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.auth.GetUser(r.Context(), userID)
		if err != nil {
			// The session names a user that no longer exists. Treat the
			// request as anonymous rather than erroring.
			h.logger.Debug("session user not found, continuing as anonymous",
				"user_id", userID.String())
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMetrics records a request counter by route pattern and status.
func withMetrics(metrics *observability.Metrics, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
