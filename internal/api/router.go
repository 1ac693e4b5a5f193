// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package api provides HTTP routing and handlers using the Chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyunwoo-dev/newsync/internal/auth"
	"github.com/hyunwoo-dev/newsync/internal/config"
	"github.com/hyunwoo-dev/newsync/internal/middleware"
	"github.com/hyunwoo-dev/newsync/internal/websocket"
)

// loginRateLimit caps login attempts per client IP to slow brute force.
const (
	loginRateLimit  = 5
	loginRateWindow = 5 * time.Minute
)

// NewRouter assembles the HTTP routes.
func NewRouter(cfg *config.Config, handler *Handler, jwt *auth.JWTManager, hub *websocket.Hub) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
	r.Use(middleware.PrometheusMetrics)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/health", handler.Health)

	// Login gets the strictest rate limit.
	r.With(httprate.LimitByIP(loginRateLimit, loginRateWindow)).
		Post("/api/auth/login", handler.Login)

	// Everything below requires a valid session.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(jwt))

		r.Post("/api/auth/logout", handler.Logout)
		r.Get("/api/newsletters/user-subscriptions", handler.UserSubscriptions)
		r.Post("/api/newsletters/subscription/toggle", handler.ToggleSubscription)
		r.Get("/api/ws", websocket.Handler(hub))
	})

	return r
}
