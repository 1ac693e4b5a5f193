// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyunwoo-dev/newsync/internal/config"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	return NewClient(&config.UpstreamConfig{
		URL:        url,
		Timeout:    2 * time.Second,
		RetryDelay: 10 * time.Millisecond,
	})
}

func TestFetchSubscriptionsNormalizesWireData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != subscriptionsPath {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": [
				{"category": "정치", "frequency": "DAILY"},
				{"preferredCategories": ["ECONOMY", "IT_SCIENCE"]}
			]
		}`))
	}))
	defer srv.Close()

	result, err := testClient(t, srv.URL).FetchSubscriptions(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("FetchSubscriptions failed: %v", err)
	}
	if result.Fallback {
		t.Error("Expected fallback=false")
	}

	want := []models.CategoryLabel{"정치", "경제", "IT/과학"}
	if len(result.Subscriptions) != len(want) {
		t.Fatalf("Expected %d subscriptions, got %d", len(want), len(result.Subscriptions))
	}
	for i, label := range want {
		if result.Subscriptions[i].Category != label {
			t.Errorf("Subscription %d: expected %s, got %s", i, label, result.Subscriptions[i].Category)
		}
	}
}

func TestFetchSubscriptionsThreadsFallbackFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": [], "fallback": true}`))
	}))
	defer srv.Close()

	result, err := testClient(t, srv.URL).FetchSubscriptions(context.Background(), "tok")
	if err != nil {
		t.Fatalf("FetchSubscriptions failed: %v", err)
	}
	if !result.Fallback {
		t.Error("Expected fallback flag to survive into the result")
	}
}

func TestFetchSubscriptionsErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthRequired},
		{"forbidden", http.StatusForbidden, ErrAuthRequired},
		{"internal error", http.StatusInternalServerError, ErrServiceUnavailable},
		{"bad gateway", http.StatusBadGateway, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := testClient(t, srv.URL).FetchSubscriptions(context.Background(), "tok")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFetchSubscriptionsRetriesOnceOnNetworkError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			// Kill the connection without a response to force a
			// transport-level error on the client side.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("Server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("Hijack failed: %v", err)
			}
			conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"success": true, "data": [{"category": "사회"}]}`))
	}))
	defer srv.Close()

	result, err := testClient(t, srv.URL).FetchSubscriptions(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Expected retry to succeed, got: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Expected 2 attempts, got %d", got)
	}
	if len(result.Subscriptions) != 1 || result.Subscriptions[0].Category != "사회" {
		t.Errorf("Unexpected result after retry: %+v", result.Subscriptions)
	}
}

func TestFetchSubscriptionsGivesUpAfterSecondNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, _ := w.(http.Hijacker)
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Fatalf("Hijack failed: %v", err)
		}
		conn.Close()
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).FetchSubscriptions(context.Background(), "tok")
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Expected ErrNetwork, got %v", err)
	}
}

func TestToggleSendsBackendCodeAndEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != togglePath {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := decodeJSON(r, &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["category"] != "POLITICS" {
			t.Errorf("Expected backend code POLITICS, got %v", body["category"])
		}
		if body["isActive"] != true {
			t.Errorf("Expected isActive true, got %v", body["isActive"])
		}
		if body["email"] != "user@example.com" {
			t.Errorf("Expected email, got %v", body["email"])
		}
		_, _ = w.Write([]byte(`{"success": true, "message": "subscribed"}`))
	}))
	defer srv.Close()

	result, err := testClient(t, srv.URL).Toggle(context.Background(), "tok", "POLITICS", true, "user@example.com")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !result.Success || result.Fallback {
		t.Errorf("Expected clean success, got %+v", result)
	}
}

func TestToggleOmitsEmptyEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := decodeJSON(r, &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if _, present := body["email"]; present {
			t.Error("Expected email field to be omitted")
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	if _, err := testClient(t, srv.URL).Toggle(context.Background(), "tok", "ECONOMY", false, ""); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
}

func TestToggleSurfacesDenialCodes(t *testing.T) {
	// The backend emits the error field as a bare string code with the
	// human-readable text in the top-level message; older builds emitted a
	// {code, message} object. Both must decode.
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{
			name:        "string code",
			body:        `{"success": false, "message": "max 3 categories", "error": "CATEGORY_LIMIT_EXCEEDED"}`,
			wantMessage: "max 3 categories",
		},
		{
			name:        "object code",
			body:        `{"success": false, "error": {"code": "CATEGORY_LIMIT_EXCEEDED", "message": "max 3 categories"}}`,
			wantMessage: "max 3 categories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			result, err := testClient(t, srv.URL).Toggle(context.Background(), "tok", "ART", true, "")
			if err != nil {
				t.Fatalf("Toggle failed: %v", err)
			}
			if result.Success {
				t.Error("Expected denial")
			}
			if result.Code != "CATEGORY_LIMIT_EXCEEDED" {
				t.Errorf("Expected CATEGORY_LIMIT_EXCEEDED, got %q", result.Code)
			}
			if result.Message != tt.wantMessage {
				t.Errorf("Expected backend message, got %q", result.Message)
			}
		})
	}
}

func TestToggleCoercesBackendFailureToFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result, err := testClient(t, srv.URL).Toggle(context.Background(), "tok", "LIFE", true, "")
	if err != nil {
		t.Fatalf("Expected soft-success, got error: %v", err)
	}
	if !result.Success {
		t.Error("Expected coerced success")
	}
	if !result.Fallback {
		t.Error("Expected fallback flag on coerced success")
	}
}

func TestToggleAuthErrorIsNotCoerced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Toggle(context.Background(), "tok", "LIFE", true, "")
	if !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Expected ErrAuthRequired, got %v", err)
	}
}
