// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

/*
client.go - Newsletter Backend API Client

This file provides the HTTP client for the upstream newsletter backend,
the system of record for subscription state.

Client Features:
  - Bearer token forwarding for per-user authentication
  - Optional service API key header
  - Single fixed-delay retry on transport-level failures
  - Error taxonomy mapping (auth / unavailable / network)
  - Backend 5xx on toggle coerced to fallback soft-success

Related Files:
  - errors.go: error taxonomy sentinels
  - circuit_breaker.go: gobreaker wrapper around this client
*/

package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyunwoo-dev/newsync/internal/config"
	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/metrics"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

const (
	subscriptionsPath = "/api/newsletters/user-subscriptions"
	togglePath        = "/api/newsletters/subscription/toggle"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 64 * 1024

// FetchResult is the outcome of a subscription list fetch.
type FetchResult struct {
	// Subscriptions is the normalized, deduplicated list.
	Subscriptions []models.Subscription

	// Fallback is true when the backend marked the payload as degraded
	// (served from its own cache rather than live data).
	Fallback bool
}

// ToggleResult is the outcome of a subscribe/unsubscribe call.
type ToggleResult struct {
	Success  bool
	Fallback bool
	Code     string
	Message  string
}

// Backend is the interface the reconciler and toggle handler depend on.
// Implemented by Client for production and by mocks in tests.
type Backend interface {
	FetchSubscriptions(ctx context.Context, token string) (*FetchResult, error)
	Toggle(ctx context.Context, token string, category models.CategoryCode, isActive bool, email string) (*ToggleResult, error)
}

// Client talks to the newsletter backend HTTP API.
//
// Thread Safety: safe for concurrent use. Each call builds its own request.
type Client struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	retryDelay time.Duration
}

// NewClient creates a backend client from configuration.
func NewClient(cfg *config.UpstreamConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryDelay: cfg.RetryDelay,
	}
}

// subscriptionsEnvelope is the backend's subscription list payload.
type subscriptionsEnvelope struct {
	Success  bool                      `json:"success"`
	Data     []models.WireSubscription `json:"data"`
	Fallback bool                      `json:"fallback"`
	Error    *models.APIError          `json:"error,omitempty"`
}

// toggleEnvelope is the backend's toggle response payload. The error field
// is a bare string code on the wire; ToggleError also tolerates the object
// form older backend builds emit.
type toggleEnvelope struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message,omitempty"`
	Fallback bool                `json:"fallback,omitempty"`
	Error    *models.ToggleError `json:"error,omitempty"`
}

// FetchSubscriptions retrieves the caller's subscription list.
//
// Error mapping:
//   - 401/403 -> ErrAuthRequired
//   - 5xx     -> ErrServiceUnavailable
//   - transport failure, after one retry -> ErrNetwork
func (c *Client) FetchSubscriptions(ctx context.Context, token string) (*FetchResult, error) {
	start := time.Now()

	resp, err := c.doWithRetry(ctx, "fetch", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+subscriptionsPath, http.NoBody)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, token)
		return req, nil
	})
	if err != nil {
		metrics.RecordUpstreamRequest("fetch", "failure", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on read path

	if err := c.checkStatus(resp); err != nil {
		metrics.RecordUpstreamRequest("fetch", "failure", time.Since(start))
		return nil, err
	}

	var envelope subscriptionsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.RecordUpstreamRequest("fetch", "failure", time.Since(start))
		return nil, fmt.Errorf("failed to decode subscriptions response: %w", err)
	}

	metrics.RecordUpstreamRequest("fetch", "success", time.Since(start))
	return &FetchResult{
		Subscriptions: models.NormalizeWireSubscriptions(envelope.Data),
		Fallback:      envelope.Fallback,
	}, nil
}

// Toggle subscribes or unsubscribes a single category.
//
// Backend 5xx is deliberately coerced to a fallback soft-success so a
// struggling backend does not bounce users out of the settings page. The
// coercion is logged and counted; callers must treat Fallback=true as
// "state unconfirmed" and re-fetch.
func (c *Client) Toggle(ctx context.Context, token string, category models.CategoryCode, isActive bool, email string) (*ToggleResult, error) {
	start := time.Now()

	payload := map[string]interface{}{
		"category": category,
		"isActive": isActive,
	}
	if email != "" {
		payload["email"] = email
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode toggle request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, "toggle", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+togglePath, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		metrics.RecordUpstreamRequest("toggle", "failure", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on read path

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.RecordUpstreamRequest("toggle", "failure", time.Since(start))
		return nil, fmt.Errorf("%w: backend returned %d", ErrAuthRequired, resp.StatusCode)

	case resp.StatusCode >= 500:
		// Soft-success coercion. See method doc.
		metrics.RecordUpstreamRequest("toggle", "fallback", time.Since(start))
		metrics.ToggleFallbackTotal.Inc()
		logging.Warn().
			Int("status", resp.StatusCode).
			Str("category", string(category)).
			Bool("is_active", isActive).
			Msg("Backend toggle failure coerced to fallback soft-success")
		return &ToggleResult{Success: true, Fallback: true}, nil
	}

	var envelope toggleEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.RecordUpstreamRequest("toggle", "failure", time.Since(start))
		return nil, fmt.Errorf("failed to decode toggle response: %w", err)
	}

	result := &ToggleResult{
		Success:  envelope.Success,
		Fallback: envelope.Fallback,
		Message:  envelope.Message,
	}
	if envelope.Error != nil {
		result.Code = envelope.Error.Code
		if result.Message == "" {
			result.Message = envelope.Error.Message
		}
	}

	outcome := "success"
	if !result.Success {
		outcome = "denied"
	}
	metrics.RecordUpstreamRequest("toggle", outcome, time.Since(start))
	return result, nil
}

// Ping verifies backend connectivity. Used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+subscriptionsPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on read path

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: backend returned %d", ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// setHeaders applies auth headers to an outgoing request.
func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

// doWithRetry performs the request, retrying exactly once after a
// transport-level failure. HTTP error statuses are not retried here;
// status mapping is the caller's job.
func (c *Client) doWithRetry(ctx context.Context, operation string, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= 1; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			metrics.UpstreamRetriesTotal.WithLabelValues(operation).Inc()
			logging.Debug().
				Str("operation", operation).
				Dur("delay", c.retryDelay).
				Msg("Retrying backend request after network error")

			timer := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", ErrNetwork, lastErr)
}

// checkStatus maps fetch response statuses to the error taxonomy.
func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: backend returned %d", ErrAuthRequired, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: backend returned %d", ErrServiceUnavailable, resp.StatusCode)
	default:
		body := readBodyForError(resp.Body)
		return fmt.Errorf("unexpected backend status %d: %s", resp.StatusCode, body)
	}
}

// readBodyForError reads a bounded amount of the response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
