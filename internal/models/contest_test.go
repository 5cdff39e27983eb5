package models

import (
	"testing"
	"time"
)

func TestContestKey_StableAndDistinct(t *testing.T) {
	a := ContestKey("Educational Round 5", "Codeforces")
	if a != ContestKey("Educational Round 5", "Codeforces") {
		t.Error("ContestKey should be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	// The separator keeps ("ab","c") and ("a","bc") apart.
	if ContestKey("ab", "c") == ContestKey("a", "bc") {
		t.Error("keys for different (name, platform) pairs collided")
	}

	rec := ContestRecord{Name: "Educational Round 5", Platform: "Codeforces"}
	if rec.Key() != a {
		t.Errorf("Key() = %s, want %s", rec.Key(), a)
	}
}

func TestSortByStartTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	early := base
	late := base.Add(2 * time.Hour)

	contests := []ContestRecord{
		{Name: "Unknown", Platform: "AtCoder"},
		{Name: "Late", Platform: "Codeforces", StartTime: &late},
		{Name: "B", Platform: "LeetCode", StartTime: &early},
		{Name: "A", Platform: "LeetCode", StartTime: &early},
	}

	SortByStartTime(contests)

	want := []string{"A", "B", "Late", "Unknown"}
	for i, name := range want {
		if contests[i].Name != name {
			t.Errorf("position %d: got %s, want %s", i, contests[i].Name, name)
		}
	}
}
