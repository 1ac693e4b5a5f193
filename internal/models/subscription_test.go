// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package models

import (
	"testing"
	"time"
)

func TestNormalizeWireSubscription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		wire WireSubscription
		want []CategoryLabel
	}{
		{
			name: "translated_label_only",
			wire: WireSubscription{Category: "경제"},
			want: []CategoryLabel{"경제"},
		},
		{
			name: "preferred_categories_codes",
			wire: WireSubscription{PreferredCategories: []string{"POLITICS", "ECONOMY"}},
			want: []CategoryLabel{"정치", "경제"},
		},
		{
			name: "backend_data_escape_hatch",
			wire: WireSubscription{
				BackendData: &WireBackendData{PreferredCategories: []string{"IT_SCIENCE"}},
			},
			want: []CategoryLabel{"IT/과학"},
		},
		{
			name: "label_wins_over_duplicate_code",
			wire: WireSubscription{
				Category:            "정치",
				PreferredCategories: []string{"POLITICS", "ART"},
			},
			want: []CategoryLabel{"정치", "예술"},
		},
		{
			name: "unknown_code_identity_fallback",
			wire: WireSubscription{PreferredCategories: []string{"SPORTS"}},
			want: []CategoryLabel{"SPORTS"},
		},
		{
			name: "empty_element",
			wire: WireSubscription{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			subs := NormalizeWireSubscription(tt.wire)
			if len(subs) != len(tt.want) {
				t.Fatalf("Got %d subscriptions, want %d: %+v", len(subs), len(tt.want), subs)
			}
			for i, want := range tt.want {
				if subs[i].Category != want {
					t.Errorf("Subscription %d category = %q, want %q", i, subs[i].Category, want)
				}
			}
		})
	}
}

func TestNormalizeWireSubscriptionsDeduplicatesAcrossElements(t *testing.T) {
	t.Parallel()

	wire := []WireSubscription{
		{Category: "경제"},
		{PreferredCategories: []string{"ECONOMY", "POLITICS"}},
	}

	subs := NormalizeWireSubscriptions(wire)
	if len(subs) != 2 {
		t.Fatalf("Got %d subscriptions, want 2: %+v", len(subs), subs)
	}
	if subs[0].Category != "경제" || subs[1].Category != "정치" {
		t.Errorf("Got categories %q, %q; want 경제, 정치", subs[0].Category, subs[1].Category)
	}
}

func TestNormalizeFrequency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want DeliveryFrequency
	}{
		{"empty_defaults_daily", "", FrequencyDaily},
		{"daily", "DAILY", FrequencyDaily},
		{"weekly", "WEEKLY", FrequencyWeekly},
		{"monthly", "MONTHLY", FrequencyMonthly},
		{"unknown_passes_through", "HOURLY", DeliveryFrequency("HOURLY")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := normalizeFrequency(tt.raw); got != tt.want {
				t.Errorf("normalizeFrequency(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseWireTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		candidates []string
		wantZero   bool
		want       time.Time
	}{
		{
			name:       "rfc3339",
			candidates: []string{"2026-08-01T09:30:00Z"},
			want:       time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name:       "invalid_date_literal",
			candidates: []string{"Invalid Date"},
			wantZero:   true,
		},
		{
			name:       "invalid_then_fallback_candidate",
			candidates: []string{"Invalid Date", "2026-08-01"},
			want:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "garbage",
			candidates: []string{"not-a-date"},
			wantZero:   true,
		},
		{
			name:       "all_empty",
			candidates: []string{"", ""},
			wantZero:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseWireTimestamp(tt.candidates...)
			if tt.wantZero {
				if !got.IsZero() {
					t.Errorf("Expected zero time, got %v", got)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("Got %v, want %v", got, tt.want)
			}
		})
	}
}
