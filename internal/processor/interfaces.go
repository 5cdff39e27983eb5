package processor

import (
	"context"

	"github.com/pauljones0/contest-tracker/internal/models"
)

// ContestStore abstracts the storage layer for contest data.
type ContestStore interface {
	ReplaceContests(ctx context.Context, contests []models.ContestRecord) error
}

// SolutionFinder abstracts the solution-video lookup.
type SolutionFinder interface {
	FindSolutionVideo(ctx context.Context, contestName string) (string, error)
}

// ContestAnnouncer abstracts the optional notification layer.
type ContestAnnouncer interface {
	Announce(ctx context.Context, contests []models.ContestRecord) error
}
