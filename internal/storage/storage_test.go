package storage

import (
	"reflect"
	"testing"

	"github.com/pauljones0/contest-tracker/internal/models"
)

func TestStaleKeys(t *testing.T) {
	a := models.ContestRecord{Name: "Round A", Platform: "Codeforces"}
	b := models.ContestRecord{Name: "Round B", Platform: "AtCoder"}
	c := models.ContestRecord{Name: "Round C", Platform: "LeetCode"}

	tests := []struct {
		name     string
		existing []string
		batch    []models.ContestRecord
		want     []string
	}{
		{
			name:     "Empty store",
			existing: nil,
			batch:    []models.ContestRecord{a},
			want:     nil,
		},
		{
			name:     "Same set",
			existing: []string{a.Key(), b.Key()},
			batch:    []models.ContestRecord{b, a},
			want:     nil,
		},
		{
			name:     "Dropped contest is stale",
			existing: []string{a.Key(), b.Key(), c.Key()},
			batch:    []models.ContestRecord{a, c},
			want:     []string{b.Key()},
		},
		{
			name:     "Completely new batch",
			existing: []string{a.Key(), b.Key()},
			batch:    []models.ContestRecord{c},
			want:     []string{a.Key(), b.Key()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := staleKeys(tt.existing, tt.batch)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("staleKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}
