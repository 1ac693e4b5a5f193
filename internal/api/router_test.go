// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyunwoo-dev/newsync/internal/config"
	"github.com/hyunwoo-dev/newsync/internal/models"
	"github.com/hyunwoo-dev/newsync/internal/subscription"
	"github.com/hyunwoo-dev/newsync/internal/upstream"
	"github.com/hyunwoo-dev/newsync/internal/websocket"
)

func newTestRouter(t *testing.T, backend upstream.Backend) (http.Handler, string) {
	t.Helper()

	cfg := &config.Config{
		Security: config.SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"http://localhost:3000"},
		},
	}

	manager := subscription.NewManager(backend, nil, nil, config.SyncConfig{
		MaxSubscriptions: 3,
		SettleDelay:      time.Millisecond,
		RefreshBurst:     10,
	})
	t.Cleanup(manager.Close)

	jwt := newTestJWT(t)
	handler := NewHandler(manager, jwt, nil, nil, nil, nil)
	hub := websocket.NewHub()

	token, err := jwt.GenerateToken("u1", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	return NewRouter(cfg, handler, jwt, hub), token
}

func TestRouterRejectsAnonymousNewsletterRoutes(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/newsletters/user-subscriptions"},
		{http.MethodPost, "/api/newsletters/subscription/toggle"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRouterServesAuthenticatedSubscriptions(t *testing.T) {
	backend := &stubBackend{
		fetchResult: &upstream.FetchResult{
			Subscriptions: []models.Subscription{
				{Category: "IT/과학", Frequency: models.FrequencyDaily},
			},
		},
	}
	router, token := newTestRouter(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/api/newsletters/user-subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.UserSubscriptionsResponse
	decodeInto(t, rec, &resp)
	if len(resp.Data) != 1 || resp.Data[0].Category != "IT/과학" {
		t.Errorf("Unexpected payload: %+v", resp.Data)
	}
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{})

	for _, path := range []string{"/api/health", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouterAssignsRequestID(t *testing.T) {
	router, _ := newTestRouter(t, &stubBackend{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID on every response")
	}
}
