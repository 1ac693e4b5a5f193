// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package models

import (
	"testing"
)

func TestCategoryMappingIsBijective(t *testing.T) {
	t.Parallel()

	if len(labelToCode) != 9 {
		t.Fatalf("Expected 9 category pairs, got %d", len(labelToCode))
	}
	if len(codeToLabel) != len(labelToCode) {
		t.Fatalf("Derived code map has %d entries, want %d (duplicate code in table)",
			len(codeToLabel), len(labelToCode))
	}
}

func TestToBackendCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		label CategoryLabel
		want  CategoryCode
	}{
		{"politics", CategoryPolitics, "POLITICS"},
		{"economy", CategoryEconomy, "ECONOMY"},
		{"society", CategorySociety, "SOCIETY"},
		{"life", CategoryLife, "LIFE"},
		{"international", CategoryInternational, "INTERNATIONAL"},
		{"it_science", CategoryITScience, "IT_SCIENCE"},
		{"vehicle", CategoryVehicle, "VEHICLE"},
		{"travel_food", CategoryTravelFood, "TRAVEL_FOOD"},
		{"art", CategoryArt, "ART"},
		{"unknown_passes_through", CategoryLabel("스포츠"), CategoryCode("스포츠")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ToBackendCode(tt.label); got != tt.want {
				t.Errorf("ToBackendCode(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestToLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code CategoryCode
		want CategoryLabel
	}{
		{"politics", "POLITICS", CategoryPolitics},
		{"economy", "ECONOMY", CategoryEconomy},
		{"art", "ART", CategoryArt},
		{"unknown_passes_through", CategoryCode("SPORTS"), CategoryLabel("SPORTS")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ToLabel(tt.code); got != tt.want {
				t.Errorf("ToLabel(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

// TestCategoryRoundTrip verifies toLabel(toBackendCode(L)) == L for every
// known label, and the reverse for every known code.
func TestCategoryRoundTrip(t *testing.T) {
	t.Parallel()

	for _, label := range ValidCategoryLabels {
		if got := ToLabel(ToBackendCode(label)); got != label {
			t.Errorf("Round trip for label %q = %q, want identity", label, got)
		}
	}
	for code := range codeToLabel {
		if got := ToBackendCode(ToLabel(code)); got != code {
			t.Errorf("Round trip for code %q = %q, want identity", code, got)
		}
	}
}

func TestIsValidCategoryLabel(t *testing.T) {
	t.Parallel()

	if !IsValidCategoryLabel(CategoryEconomy) {
		t.Error("Expected 경제 to be a valid label")
	}
	if IsValidCategoryLabel(CategoryLabel("스포츠")) {
		t.Error("Expected 스포츠 to be invalid")
	}
}
