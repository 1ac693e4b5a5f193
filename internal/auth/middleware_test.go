// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hyunwoo-dev/newsync/internal/config"
)

func sessionEcho(t *testing.T, captured **Session) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			t.Error("Expected session in context")
		}
		*captured = sess
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSessionWithBearerToken(t *testing.T) {
	m := testManager(t, time.Hour)
	token, err := m.GenerateToken("u1", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	var captured *Session
	handler := RequireSession(m)(sessionEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if captured.UserID != "u1" || captured.Email != "user@example.com" || captured.Token != token {
		t.Errorf("Unexpected session: %+v", captured)
	}
}

func TestRequireSessionWithCookie(t *testing.T) {
	m := testManager(t, time.Hour)
	token, err := m.GenerateToken("u2", "")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	var captured *Session
	handler := RequireSession(m)(sessionEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if captured.UserID != "u2" {
		t.Errorf("Expected user u2, got %s", captured.UserID)
	}
}

func TestRequireSessionRejections(t *testing.T) {
	m := testManager(t, time.Hour)
	handler := RequireSession(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("Handler should not run without a session")
	}))

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no token", func(_ *http.Request) {}},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "AUTHENTICATION_REQUIRED") {
				t.Errorf("Expected AUTHENTICATION_REQUIRED in body, got %s", rec.Body.String())
			}
		})
	}
}

func TestCredentialChecker(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}

	checker := NewCredentialChecker(&config.SecurityConfig{
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
	})
	if checker == nil {
		t.Fatal("Expected checker for configured admin")
	}

	if err := checker.Check("admin", "hunter2secret"); err != nil {
		t.Errorf("Valid credentials rejected: %v", err)
	}
	if err := checker.Check("admin", "wrong"); err == nil {
		t.Error("Wrong password accepted")
	}
	if err := checker.Check("root", "hunter2secret"); err == nil {
		t.Error("Wrong username accepted")
	}
}

func TestCredentialCheckerDisabled(t *testing.T) {
	if NewCredentialChecker(&config.SecurityConfig{}) != nil {
		t.Error("Expected nil checker when no admin is configured")
	}
}
