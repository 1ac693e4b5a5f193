// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

// Session is the authenticated caller attached to a request context.
type Session struct {
	UserID string
	Email  string
	Token  string
}

type contextKey string

const sessionKey contextKey = "newsync-session"

// SessionFromContext returns the session attached by RequireSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok
}

// ContextWithSession attaches a session, for handler tests.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionCookieName is accepted as an alternative to the Authorization
// header for browser clients. The login handler sets it.
const SessionCookieName = "newsync_session"

// RequireSession validates the bearer token (or session cookie) and
// attaches the session to the request context. Requests without a valid
// session get a 401 with code AUTHENTICATION_REQUIRED.
func RequireSession(manager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				unauthorized(w, "Missing session token")
				return
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				logging.Debug().Err(err).Msg("Rejected session token")
				unauthorized(w, "Invalid or expired session")
				return
			}

			sess := &Session{
				UserID: claims.Subject,
				Email:  claims.Email,
				Token:  token,
			}
			ctx := ContextWithSession(r.Context(), sess)
			ctx = logging.ContextWithUserID(ctx, sess.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls the session token from the Authorization header or
// the session cookie, header winning.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// unauthorized writes the standard 401 envelope.
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	response := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    "AUTHENTICATION_REQUIRED",
			Message: message,
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Error().Err(err).Msg("Failed to encode 401 response")
	}
}
