// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package models provides data structures for the Newsync application.
//
// subscription.go - Canonical Subscription Entity and Wire Normalization
//
// The backend's subscription payload is loosely specified and has evolved
// through several shapes: a pre-translated "category" label, a raw
// "preferredCategories" code array, and a "backendData" escape hatch carrying
// the untranslated original. NormalizeWireSubscription folds every known
// variant into the canonical Subscription type at the boundary, so nothing
// past this file ever inspects optional or fallback fields.
package models

import (
	"time"
)

// DeliveryFrequency defines how often a subscriber receives newsletters.
type DeliveryFrequency string

const (
	// FrequencyDaily delivers one issue per day.
	FrequencyDaily DeliveryFrequency = "DAILY"

	// FrequencyWeekly delivers one issue per week.
	FrequencyWeekly DeliveryFrequency = "WEEKLY"

	// FrequencyMonthly delivers one issue per month.
	FrequencyMonthly DeliveryFrequency = "MONTHLY"

	// FrequencyImmediate delivers as soon as content is published.
	FrequencyImmediate DeliveryFrequency = "IMMEDIATE"
)

// ValidDeliveryFrequencies contains all known delivery frequencies.
var ValidDeliveryFrequencies = []DeliveryFrequency{
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyMonthly,
	FrequencyImmediate,
}

// IsValidDeliveryFrequency checks if a frequency is one of the known values.
func IsValidDeliveryFrequency(f DeliveryFrequency) bool {
	for _, valid := range ValidDeliveryFrequencies {
		if f == valid {
			return true
		}
	}
	return false
}

// Subscription is the canonical, fully-normalized subscription entity.
// The owning user is implicit via the session that holds it.
type Subscription struct {
	// Category is the UI label for the subscribed category.
	Category CategoryLabel `json:"category"`

	// Frequency is the delivery frequency. Unknown wire values pass through.
	Frequency DeliveryFrequency `json:"frequency"`

	// SubscribedAt is when the subscription was created.
	// Zero when the backend sent no usable timestamp.
	SubscribedAt time.Time `json:"subscribed_at"`
}

// WireSubscription mirrors one element of the backend's subscription payload.
// All fields are optional; any one of Category, PreferredCategories, or
// BackendData.PreferredCategories may carry the category information.
type WireSubscription struct {
	// Category is an already-translated UI label, when present.
	Category string `json:"category,omitempty"`

	// PreferredCategories holds raw backend codes, when present.
	PreferredCategories []string `json:"preferredCategories,omitempty"`

	// Frequency is the raw frequency value (DAILY, WEEKLY, MONTHLY, ...).
	Frequency string `json:"frequency,omitempty"`

	// SubscribedAt and CreatedAt are ISO date strings. The backend is known
	// to emit the literal "Invalid Date" here.
	SubscribedAt string `json:"subscribedAt,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`

	// BackendData is the escape hatch for the untranslated original payload.
	BackendData *WireBackendData `json:"_backendData,omitempty"`
}

// WireBackendData carries fields from the untranslated backend payload.
type WireBackendData struct {
	PreferredCategories []string `json:"preferredCategories,omitempty"`
}

// NormalizeWireSubscription maps a single wire element to its canonical
// subscriptions. One wire element can expand to several subscriptions when it
// carries a preferredCategories array. Category resolution order:
//
//  1. Category (already a label, kept as-is)
//  2. PreferredCategories (raw codes, translated)
//  3. BackendData.PreferredCategories (raw codes, translated)
//
// Duplicate categories within one element are dropped. Elements with no
// category information normalize to an empty slice.
func NormalizeWireSubscription(w WireSubscription) []Subscription {
	frequency := normalizeFrequency(w.Frequency)
	subscribedAt := parseWireTimestamp(w.SubscribedAt, w.CreatedAt)

	seen := make(map[CategoryLabel]bool)
	var subs []Subscription

	appendLabel := func(label CategoryLabel) {
		if label == "" || seen[label] {
			return
		}
		seen[label] = true
		subs = append(subs, Subscription{
			Category:     label,
			Frequency:    frequency,
			SubscribedAt: subscribedAt,
		})
	}

	if w.Category != "" {
		appendLabel(CategoryLabel(w.Category))
	}
	for _, code := range w.PreferredCategories {
		appendLabel(ToLabel(CategoryCode(code)))
	}
	if w.BackendData != nil {
		for _, code := range w.BackendData.PreferredCategories {
			appendLabel(ToLabel(CategoryCode(code)))
		}
	}

	return subs
}

// NormalizeWireSubscriptions normalizes a full payload, de-duplicating
// categories across elements. The first occurrence of a category wins.
func NormalizeWireSubscriptions(wire []WireSubscription) []Subscription {
	seen := make(map[CategoryLabel]bool)
	var subs []Subscription
	for _, w := range wire {
		for _, sub := range NormalizeWireSubscription(w) {
			if seen[sub.Category] {
				continue
			}
			seen[sub.Category] = true
			subs = append(subs, sub)
		}
	}
	return subs
}

// normalizeFrequency maps a raw wire frequency to the canonical enum.
// Unknown non-empty values pass through unchanged; empty defaults to DAILY.
func normalizeFrequency(raw string) DeliveryFrequency {
	if raw == "" {
		return FrequencyDaily
	}
	return DeliveryFrequency(raw)
}

// parseWireTimestamp parses the first usable timestamp among the candidates.
// The backend frequently sends the literal "Invalid Date"; that and any other
// unparseable value mean "no timestamp available" (zero time).
func parseWireTimestamp(candidates ...string) time.Time {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02",
	}
	for _, raw := range candidates {
		if raw == "" || raw == "Invalid Date" {
			continue
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
