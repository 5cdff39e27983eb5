package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pauljones0/contest-tracker/internal/models"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func contest(name, platform string, start *time.Time) models.ContestRecord {
	status := models.StatusUpcoming
	if start == nil {
		status = models.StatusUnknown
	}
	return models.ContestRecord{
		Name:        name,
		Platform:    platform,
		URL:         "https://example.com/" + name,
		StartTime:   start,
		Duration:    "Starts in: 1h",
		Status:      status,
		LastUpdated: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func at(hour int) *time.Time {
	t := time.Date(2026, 3, 1, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestSQLiteReplaceContests_RemovesStale(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := []models.ContestRecord{contest("Round A", "Codeforces", at(13)), contest("Round B", "AtCoder", at(14))}
	if err := store.ReplaceContests(ctx, first); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}

	second := []models.ContestRecord{contest("Round B", "AtCoder", at(15)), contest("Round C", "LeetCode", at(16))}
	if err := store.ReplaceContests(ctx, second); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	got, err := store.ListContests(ctx)
	if err != nil {
		t.Fatalf("ListContests failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 contests, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Round B" || got[1].Name != "Round C" {
		t.Errorf("Expected [Round B, Round C], got [%s, %s]", got[0].Name, got[1].Name)
	}
	if !got[0].StartTime.Equal(*at(15)) {
		t.Errorf("Expected Round B to be updated to 15:00, got %v", got[0].StartTime)
	}
}

func TestSQLiteReplaceContests_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	batch := []models.ContestRecord{contest("Round A", "Codeforces", at(13)), contest("Round B", "AtCoder", nil)}

	if err := store.ReplaceContests(ctx, batch); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}
	first, _ := store.ListContests(ctx)

	if err := store.ReplaceContests(ctx, batch); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}
	second, _ := store.ListContests(ctx)

	if len(first) != len(second) {
		t.Fatalf("Expected same size, got %d and %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Key() != b.Key() || a.URL != b.URL || a.Duration != b.Duration || a.Status != b.Status ||
			!a.LastUpdated.Equal(b.LastUpdated) || (a.StartTime == nil) != (b.StartTime == nil) {
			t.Errorf("Record %d changed between runs: %+v vs %+v", i, a, b)
		}
	}
}

func TestSQLiteReplaceContests_EmptyBatchRefused(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.ReplaceContests(ctx, []models.ContestRecord{contest("Round A", "Codeforces", at(13))}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := store.ReplaceContests(ctx, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("Expected ErrEmptyBatch, got %v", err)
	}

	got, _ := store.ListContests(ctx)
	if len(got) != 1 {
		t.Errorf("Expected snapshot to survive an empty batch, got %d contests", len(got))
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ended := contest("Round E", "CodeChef", at(1))
	ended.Status = models.StatusEnded
	ended.Duration = "Ended"
	solution := "https://www.youtube.com/watch?v=xyz"
	ended.SolutionURL = &solution
	unknown := contest("Round U", "HackerRank", nil)

	if err := store.ReplaceContests(ctx, []models.ContestRecord{unknown, ended}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	got, err := store.ListContests(ctx)
	if err != nil {
		t.Fatalf("ListContests failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 contests, got %d", len(got))
	}

	if got[0].Name != "Round E" {
		t.Fatalf("Expected known start time first, got %s", got[0].Name)
	}
	if got[0].Solution() != solution || got[0].Status != models.StatusEnded {
		t.Errorf("Ended contest did not round-trip: %+v", got[0])
	}
	if !got[0].StartTime.Equal(*ended.StartTime) {
		t.Errorf("Expected start %v, got %v", ended.StartTime, got[0].StartTime)
	}
	if got[1].StartTime != nil {
		t.Errorf("Expected nil start time to round-trip, got %v", got[1].StartTime)
	}
	if got[1].SolutionURL != nil {
		t.Errorf("Expected nil solution URL to round-trip, got %q", *got[1].SolutionURL)
	}
	if !got[1].LastUpdated.Equal(unknown.LastUpdated) {
		t.Errorf("Expected LastUpdated %v, got %v", unknown.LastUpdated, got[1].LastUpdated)
	}
}

// A reader running alongside repeated replaces must always see a full snapshot.
func TestSQLiteReplaceContests_ReadersNeverSeeEmptySnapshot(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	batchA := []models.ContestRecord{contest("Round A", "Codeforces", at(13)), contest("Round B", "AtCoder", at(14))}
	batchB := []models.ContestRecord{contest("Round C", "LeetCode", at(15)), contest("Round D", "CodeChef", at(16))}
	if err := store.ReplaceContests(ctx, batchA); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 50; i++ {
			batch := batchA
			if i%2 == 0 {
				batch = batchB
			}
			if err := store.ReplaceContests(ctx, batch); err != nil {
				t.Errorf("replace %d failed: %v", i, err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		got, err := store.ListContests(ctx)
		if err != nil {
			t.Fatalf("ListContests failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Reader observed a partial snapshot of %d contests", len(got))
		}
	}
}
