package storage

import (
	"errors"

	"github.com/pauljones0/contest-tracker/internal/models"
)

// ErrEmptyBatch is returned when a replace is attempted with no contests.
// Accepting it would wipe the stored snapshot.
var ErrEmptyBatch = errors.New("refusing to replace contests with an empty batch")

// staleKeys returns the stored keys that are not present in batch.
func staleKeys(existing []string, batch []models.ContestRecord) []string {
	keep := make(map[string]struct{}, len(batch))
	for _, c := range batch {
		keep[c.Key()] = struct{}{}
	}

	var stale []string
	for _, key := range existing {
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	return stale
}
