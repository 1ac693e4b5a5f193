// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// Fallback is true when the response was assembled from the degraded path
// (persisted snapshot, or a backend write acknowledged locally but not yet
// confirmed). It is threaded through from the upstream layer and must never
// be dropped: the UI renders a degraded-data banner from it.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Fallback    bool      `json:"fallback,omitempty"`
}

// APIError represents an error response with structured details.
//
// Common error codes:
//   - AUTHENTICATION_REQUIRED: No or invalid session (client should redirect to login)
//   - CATEGORY_LIMIT_EXCEEDED: The 3-category subscription cap was hit
//   - ALREADY_SUBSCRIBED: Toggle-on for a category already subscribed
//   - SERVICE_UNAVAILABLE: Backend degraded (client shows dismissible banner)
//   - TRANSIENT_ERROR: Generic retryable failure (client offers manual retry)
//   - VALIDATION_ERROR: Invalid input parameters
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// UserSubscriptionsResponse is the payload of
// GET /api/newsletters/user-subscriptions. Fallback mirrors
// Metadata.Fallback for clients that only read the payload.
type UserSubscriptionsResponse struct {
	Success  bool           `json:"success"`
	Data     []Subscription `json:"data"`
	Fallback bool           `json:"fallback,omitempty"`
}

// ToggleRequest is the body of POST /api/newsletters/subscription/toggle.
type ToggleRequest struct {
	// Category is the UI label of the category to toggle.
	Category string `json:"category" validate:"required"`

	// IsActive is the desired state: true to subscribe, false to unsubscribe.
	IsActive bool `json:"isActive"`

	// Email optionally overrides the session's delivery address.
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// ToggleResponse is the body returned by the toggle endpoint.
//
// A backend 5xx is surfaced as Success=true with Fallback=true: the toggle is
// accepted locally and resynced later. This coercion is an explicit, logged,
// and metric-counted code path, never a silent one.
type ToggleResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	Fallback bool         `json:"fallback,omitempty"`
	Error    *ToggleError `json:"error,omitempty"`
}

// ToggleError is the error field of the toggle wire shape. On the wire it
// is a bare string code, e.g. "CATEGORY_LIMIT_EXCEEDED"; the human-readable
// text travels in the top-level message field. Some backend builds emit a
// {code, message} object instead, so decoding accepts both forms.
type ToggleError struct {
	Code    string
	Message string
}

// MarshalJSON emits the bare string code.
func (e ToggleError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Code)
}

// UnmarshalJSON accepts either a bare string code or a {code, message}
// object.
func (e *ToggleError) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Code)
	}
	var obj struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("failed to decode toggle error: %w", err)
	}
	e.Code = obj.Code
	e.Message = obj.Message
	return nil
}
