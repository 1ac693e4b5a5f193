// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

/*
handlers.go - HTTP Handlers

Handlers translate between HTTP and the subscription manager. The two
newsletter endpoints keep the upstream wire shapes (success/data/error)
so browser clients written against the backend API work against Newsync
unchanged; everything else uses the standard APIResponse envelope.

Error mapping:

	subscription.ErrInvalidCategory      -> 400 VALIDATION_ERROR
	subscription.ErrAlreadySubscribed    -> 409 ALREADY_SUBSCRIBED
	subscription.ErrNotSubscribed        -> 409 NOT_SUBSCRIBED
	subscription.ErrCategoryLimitExceeded-> 409 CATEGORY_LIMIT_EXCEEDED
	upstream.ErrAuthRequired             -> 401 AUTHENTICATION_REQUIRED
	upstream.ErrServiceUnavailable       -> 503 SERVICE_UNAVAILABLE
	upstream.ErrNetwork                  -> 502 TRANSIENT_ERROR
*/

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hyunwoo-dev/newsync/internal/auth"
	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/models"
	"github.com/hyunwoo-dev/newsync/internal/session"
	"github.com/hyunwoo-dev/newsync/internal/subscription"
	"github.com/hyunwoo-dev/newsync/internal/upstream"
)

// healthPingTimeout bounds the upstream reachability probe.
const healthPingTimeout = 2 * time.Second

// Pinger probes upstream reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerStater reports the upstream circuit breaker state.
type BreakerStater interface {
	State() string
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	manager *subscription.Manager
	jwt     *auth.JWTManager
	creds   *auth.CredentialChecker
	bus     *session.Bus
	pinger  Pinger
	breaker BreakerStater
	started time.Time
}

// NewHandler creates the API handler set. creds may be nil (login
// disabled); pinger and breaker may be nil (health reports unknown).
func NewHandler(manager *subscription.Manager, jwt *auth.JWTManager, creds *auth.CredentialChecker, bus *session.Bus, pinger Pinger, breaker BreakerStater) *Handler {
	return &Handler{
		manager: manager,
		jwt:     jwt,
		creds:   creds,
		bus:     bus,
		pinger:  pinger,
		breaker: breaker,
		started: time.Now(),
	}
}

// sessionUser builds the manager user from the request session.
func sessionUser(sess *auth.Session) subscription.User {
	return subscription.User{
		ID:    sess.UserID,
		Email: sess.Email,
		Token: sess.Token,
	}
}

// UserSubscriptions handles GET /api/newsletters/user-subscriptions.
func (h *Handler) UserSubscriptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondNewsletterError(w, http.StatusUnauthorized, &models.APIError{
			Code:    "AUTHENTICATION_REQUIRED",
			Message: "Session required",
		}, nil)
		return
	}

	result, err := h.manager.Subscriptions(r.Context(), sessionUser(sess))
	if err != nil {
		status, apiErr := mapSubscriptionError(err)
		respondNewsletterError(w, status, apiErr, err)
		return
	}

	writeJSON(w, http.StatusOK, &models.UserSubscriptionsResponse{
		Success:  true,
		Data:     result.Subscriptions,
		Fallback: result.Fallback,
	})
}

// ToggleSubscription handles POST /api/newsletters/subscription/toggle.
func (h *Handler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondNewsletterError(w, http.StatusUnauthorized, &models.APIError{
			Code:    "AUTHENTICATION_REQUIRED",
			Message: "Session required",
		}, nil)
		return
	}

	var req models.ToggleRequest
	if err := decodeBody(r, &req); err != nil {
		respondNewsletterError(w, http.StatusBadRequest, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
		}, err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondNewsletterError(w, http.StatusBadRequest, apiErr, nil)
		return
	}

	user := sessionUser(sess)
	if req.Email != "" {
		user.Email = req.Email
	}

	outcome, err := h.manager.Toggle(r.Context(), user, models.CategoryLabel(req.Category), req.IsActive)
	if err != nil {
		status, apiErr := mapSubscriptionError(err)
		respondNewsletterError(w, status, apiErr, err)
		return
	}

	writeJSON(w, http.StatusOK, &models.ToggleResponse{
		Success:  true,
		Message:  outcome.Message,
		Fallback: outcome.Fallback,
	})
}

// mapSubscriptionError translates manager and upstream errors into an
// HTTP status and wire error.
func mapSubscriptionError(err error) (int, *models.APIError) {
	switch {
	case errors.Is(err, subscription.ErrInvalidCategory):
		return http.StatusBadRequest, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "Unknown newsletter category",
		}
	case errors.Is(err, subscription.ErrCategoryLimitExceeded):
		return http.StatusConflict, &models.APIError{
			Code:    "CATEGORY_LIMIT_EXCEEDED",
			Message: "Subscription limit reached. Unsubscribe from a category first.",
		}
	case errors.Is(err, subscription.ErrAlreadySubscribed):
		return http.StatusConflict, &models.APIError{
			Code:    "ALREADY_SUBSCRIBED",
			Message: "Already subscribed to this category",
		}
	case errors.Is(err, subscription.ErrNotSubscribed):
		return http.StatusConflict, &models.APIError{
			Code:    "NOT_SUBSCRIBED",
			Message: "Not subscribed to this category",
		}
	case errors.Is(err, upstream.ErrAuthRequired):
		return http.StatusUnauthorized, &models.APIError{
			Code:    "AUTHENTICATION_REQUIRED",
			Message: "Session rejected by the newsletter backend",
		}
	case errors.Is(err, upstream.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, &models.APIError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "Newsletter backend is unavailable. Please try again later.",
		}
	case errors.Is(err, upstream.ErrNetwork):
		return http.StatusBadGateway, &models.APIError{
			Code:    "TRANSIENT_ERROR",
			Message: "Could not reach the newsletter backend",
		}
	default:
		return http.StatusInternalServerError, &models.APIError{
			Code:    "TRANSIENT_ERROR",
			Message: "Unexpected error",
		}
	}
}

// loginRequest is the body of POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginResponse is the payload of a successful login.
type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login. Issues a session token and sets
// the session cookie for browser clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.creds == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Login is not configured", nil)
		return
	}

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	if err := h.creds.Check(req.Username, req.Password); err != nil {
		logging.Ctx(r.Context()).Warn().
			Str("username", sanitizeLogValue(req.Username)).
			Msg("Login rejected")
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "Invalid credentials", nil)
		return
	}

	token, err := h.jwt.GenerateToken(req.Username, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TRANSIENT_ERROR", "Failed to create session", err)
		return
	}

	ttl := h.jwt.SessionTTL()
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	if h.bus != nil {
		h.bus.PublishAuthChange(req.Username, true)
	}
	logging.Ctx(r.Context()).Info().
		Str("username", sanitizeLogValue(req.Username)).
		Msg("Login succeeded")

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: loginResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(ttl),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Logout handles POST /api/auth/logout. Clears the session cookie and
// announces the sign-out so open WebSocket tabs can react.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "Session required", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	if h.bus != nil {
		h.bus.PublishAuthChange(sess.UserID, false)
	}
	logging.Ctx(r.Context()).Info().Msg("Logout")

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]bool{"signed_out": true},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// healthStatus is the health endpoint payload.
type healthStatus struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Upstream struct {
		Reachable bool   `json:"reachable"`
		Circuit   string `json:"circuit,omitempty"`
	} `json:"upstream"`
}

// Health handles GET /api/health. Always answers 200; an unreachable
// backend degrades the status rather than failing the check, because
// Newsync keeps serving snapshots while the backend is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status: "healthy",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	}

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			status.Status = "degraded"
		} else {
			status.Upstream.Reachable = true
		}
	}
	if h.breaker != nil {
		status.Upstream.Circuit = h.breaker.State()
		if status.Upstream.Circuit == "open" {
			status.Status = "degraded"
		}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     status,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
