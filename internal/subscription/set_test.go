// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package subscription

import (
	"sync"
	"testing"

	"github.com/hyunwoo-dev/newsync/internal/models"
)

func sub(label models.CategoryLabel) models.Subscription {
	return models.Subscription{Category: label, Frequency: models.FrequencyDaily}
}

func TestSetAddRemoveContains(t *testing.T) {
	t.Parallel()

	s := NewSet()
	if s.Contains("경제") {
		t.Error("Empty set should not contain anything")
	}

	if !s.Add(sub("경제")) {
		t.Error("First add should succeed")
	}
	if s.Add(sub("경제")) {
		t.Error("Duplicate add should report false")
	}
	if !s.Contains("경제") {
		t.Error("Set should contain added category")
	}
	if s.Len() != 1 {
		t.Errorf("Expected length 1, got %d", s.Len())
	}

	removed, ok := s.Remove("경제")
	if !ok || removed.Category != "경제" {
		t.Errorf("Remove should return the removed subscription, got %+v, %v", removed, ok)
	}
	if _, ok := s.Remove("경제"); ok {
		t.Error("Removing an absent category should report false")
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty set, got length %d", s.Len())
	}
}

func TestSetPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	s := NewSet()
	s.Add(sub("사회"))
	s.Add(sub("정치"))
	s.Add(sub("경제"))

	want := []models.CategoryLabel{"사회", "정치", "경제"}
	got := s.Labels()
	if len(got) != len(want) {
		t.Fatalf("Expected %d labels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSetReplaceCopiesInput(t *testing.T) {
	t.Parallel()

	s := NewSet()
	s.Add(sub("정치"))

	snapshot := []models.Subscription{sub("생활"), sub("예술")}
	s.Replace(snapshot)
	snapshot[0].Category = "mutated"

	if !s.Contains("생활") {
		t.Error("Replace should not alias the caller's slice")
	}
	if s.Contains("정치") {
		t.Error("Replace should drop prior contents")
	}
}

func TestSetSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	s := NewSet()
	s.Add(sub("여행/음식"))

	snap := s.Snapshot()
	snap[0].Category = "mutated"

	if !s.Contains("여행/음식") {
		t.Error("Mutating a snapshot should not affect the set")
	}
}

func TestSetConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewSet()
	labels := models.ValidCategoryLabels

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, label := range labels {
				s.Add(sub(label))
				s.Contains(label)
				s.Snapshot()
				s.Remove(label)
			}
		}()
	}
	wg.Wait()
}
