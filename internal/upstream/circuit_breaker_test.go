// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package upstream

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hyunwoo-dev/newsync/internal/models"
)

// flakyBackend fails every call with the configured error.
type flakyBackend struct {
	err   error
	calls int
}

func (f *flakyBackend) FetchSubscriptions(_ context.Context, _ string) (*FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{}, nil
}

func (f *flakyBackend) Toggle(_ context.Context, _ string, _ models.CategoryCode, _ bool, _ string) (*ToggleResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ToggleResult{Success: true}, nil
}

func TestCircuitBreakerOpensAfterRepeatedNetworkFailures(t *testing.T) {
	backend := &flakyBackend{err: fmt.Errorf("%w: connection refused", ErrNetwork)}
	cbc := NewCircuitBreakerClient(backend)

	for i := 0; i < breakerMinRequests; i++ {
		if _, err := cbc.FetchSubscriptions(context.Background(), "tok"); err == nil {
			t.Fatalf("Call %d: expected failure", i)
		}
	}

	// Breaker is now open; the backend must not be reached again.
	before := backend.calls
	_, err := cbc.FetchSubscriptions(context.Background(), "tok")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("Expected ErrServiceUnavailable from open circuit, got %v", err)
	}
	if backend.calls != before {
		t.Errorf("Expected no backend call through open circuit, got %d extra", backend.calls-before)
	}
	if cbc.State() != "open" {
		t.Errorf("Expected open state, got %s", cbc.State())
	}
}

func TestCircuitBreakerIgnoresAuthErrors(t *testing.T) {
	backend := &flakyBackend{err: fmt.Errorf("%w: backend returned 401", ErrAuthRequired)}
	cbc := NewCircuitBreakerClient(backend)

	// Auth rejections mean the backend is up. The breaker must stay closed
	// no matter how many arrive.
	for i := 0; i < breakerMinRequests*2; i++ {
		_, err := cbc.FetchSubscriptions(context.Background(), "tok")
		if !errors.Is(err, ErrAuthRequired) {
			t.Fatalf("Call %d: expected ErrAuthRequired, got %v", i, err)
		}
	}

	if cbc.State() != "closed" {
		t.Errorf("Expected closed state after auth errors, got %s", cbc.State())
	}
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	backend := &flakyBackend{}
	cbc := NewCircuitBreakerClient(backend)

	result, err := cbc.Toggle(context.Background(), "tok", "POLITICS", true, "")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !result.Success {
		t.Error("Expected success to pass through")
	}
}
