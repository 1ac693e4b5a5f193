// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package models provides data structures for the Newsync application.
//
// category.go - Category Vocabulary and Backend Code Mapping
//
// The UI vocabulary is a fixed set of 9 Korean category labels; the backend
// speaks uppercase enumeration codes. The mapping is total and bijective over
// the known set. Unknown values pass through unchanged in both directions so
// that backend vocabulary drift degrades gracefully instead of failing.
package models

// CategoryLabel is a human-readable category name shown in the UI (e.g., "경제").
type CategoryLabel string

// CategoryCode is the backend enumeration value for a category (e.g., "ECONOMY").
type CategoryCode string

// The fixed category vocabulary.
const (
	CategoryPolitics      CategoryLabel = "정치"
	CategoryEconomy       CategoryLabel = "경제"
	CategorySociety       CategoryLabel = "사회"
	CategoryLife          CategoryLabel = "생활"
	CategoryInternational CategoryLabel = "세계"
	CategoryITScience     CategoryLabel = "IT/과학"
	CategoryVehicle       CategoryLabel = "자동차/교통"
	CategoryTravelFood    CategoryLabel = "여행/음식"
	CategoryArt           CategoryLabel = "예술"
)

// Backend enumeration codes corresponding to the labels above.
const (
	CodePolitics      CategoryCode = "POLITICS"
	CodeEconomy       CategoryCode = "ECONOMY"
	CodeSociety       CategoryCode = "SOCIETY"
	CodeLife          CategoryCode = "LIFE"
	CodeInternational CategoryCode = "INTERNATIONAL"
	CodeITScience     CategoryCode = "IT_SCIENCE"
	CodeVehicle       CategoryCode = "VEHICLE"
	CodeTravelFood    CategoryCode = "TRAVEL_FOOD"
	CodeArt           CategoryCode = "ART"
)

// labelToCode is the authoritative mapping table. codeToLabel is derived from
// it at init time so the two directions cannot drift apart.
var labelToCode = map[CategoryLabel]CategoryCode{
	CategoryPolitics:      CodePolitics,
	CategoryEconomy:       CodeEconomy,
	CategorySociety:       CodeSociety,
	CategoryLife:          CodeLife,
	CategoryInternational: CodeInternational,
	CategoryITScience:     CodeITScience,
	CategoryVehicle:       CodeVehicle,
	CategoryTravelFood:    CodeTravelFood,
	CategoryArt:           CodeArt,
}

var codeToLabel = func() map[CategoryCode]CategoryLabel {
	m := make(map[CategoryCode]CategoryLabel, len(labelToCode))
	for label, code := range labelToCode {
		m[code] = label
	}
	return m
}()

// ValidCategoryLabels lists all known category labels in display order.
var ValidCategoryLabels = []CategoryLabel{
	CategoryPolitics,
	CategoryEconomy,
	CategorySociety,
	CategoryLife,
	CategoryInternational,
	CategoryITScience,
	CategoryVehicle,
	CategoryTravelFood,
	CategoryArt,
}

// IsValidCategoryLabel checks if a label belongs to the known vocabulary.
func IsValidCategoryLabel(label CategoryLabel) bool {
	_, ok := labelToCode[label]
	return ok
}

// ToBackendCode translates a UI label to its backend code.
// Unknown labels pass through unchanged (identity fallback).
func ToBackendCode(label CategoryLabel) CategoryCode {
	if code, ok := labelToCode[label]; ok {
		return code
	}
	return CategoryCode(label)
}

// ToLabel translates a backend code to its UI label.
// Unknown codes pass through unchanged (identity fallback).
func ToLabel(code CategoryCode) CategoryLabel {
	if label, ok := codeToLabel[code]; ok {
		return label
	}
	return CategoryLabel(code)
}
