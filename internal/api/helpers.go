// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

// validate is the shared request validator.
var validate = validator.New()

// sanitizeLogValue removes control characters from strings to prevent
// log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends an enveloped JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	writeJSON(w, status, response)
}

// writeJSON sends any JSON payload. The newsletter endpoints keep the
// upstream wire shapes instead of the standard envelope so existing
// clients keep working unmodified.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondNewsletterError sends an error in the newsletter wire shape,
// {"success": false, "message": "...", "error": "CODE"}. The error field
// carries only the string code; the human-readable text goes in message.
func respondNewsletterError(w http.ResponseWriter, status int, apiErr *models.APIError, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(apiErr.Code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}
	writeJSON(w, status, &models.ToggleResponse{
		Success: false,
		Message: apiErr.Message,
		Error:   &models.ToggleError{Code: apiErr.Code, Message: apiErr.Message},
	})
}

// validateRequest validates a struct, returning a VALIDATION_ERROR
// APIError on failure.
func validateRequest(v interface{}) *models.APIError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	details := make(map[string]interface{})
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			details[fe.Field()] = fmt.Sprintf("failed %q validation", fe.Tag())
		}
	}
	return &models.APIError{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid request parameters",
		Details: details,
	}
}

// decodeBody decodes a JSON request body into v, limited to 64KB.
func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64*1024)).Decode(v)
}
