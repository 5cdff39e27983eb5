package processor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pauljones0/contest-tracker/internal/models"
	"github.com/pauljones0/contest-tracker/internal/util"
	"github.com/pauljones0/contest-tracker/internal/video"
)

const (
	upcomingLabel = "Starts in:"
	endedMarker   = "Ended"

	// endedPlaceholderAge is how far before the run an ended contest's start is placed.
	endedPlaceholderAge = 24 * time.Hour
)

// Classify derives the contest status from its raw status text.
func Classify(duration string) models.ContestStatus {
	switch {
	case strings.HasPrefix(duration, upcomingLabel):
		return models.StatusUpcoming
	case strings.Contains(duration, endedMarker):
		return models.StatusEnded
	default:
		return models.StatusUnknown
	}
}

// classify fills StartTime, Status and LastUpdated for each record and clears
// any SolutionURL. No external calls are made here.
func classify(log *slog.Logger, now time.Time, contests []models.ContestRecord) {
	for i := range contests {
		contest := &contests[i]
		contest.Status = Classify(contest.Duration)
		contest.StartTime = nil
		contest.SolutionURL = nil
		contest.LastUpdated = now

		switch contest.Status {
		case models.StatusUpcoming:
			delta, err := util.ParseDuration(strings.TrimPrefix(contest.Duration, upcomingLabel))
			if err != nil {
				log.Warn("Could not parse countdown, start time left unknown", "name", contest.Name, "duration", contest.Duration, "error", err)
				continue
			}
			start := now.Add(delta)
			contest.StartTime = &start

		case models.StatusEnded:
			start := now.Add(-endedPlaceholderAge)
			contest.StartTime = &start

		default:
			log.Warn("Unrecognised contest status, start time left unknown", "name", contest.Name, "duration", contest.Duration)
		}
	}
}

// attachSolutions looks up a solution video for each ended contest, one at a
// time. contests must already be unique on (name, platform).
func (p *ContestProcessor) attachSolutions(ctx context.Context, log *slog.Logger, contests []models.ContestRecord) (lookups int) {
	for i := range contests {
		contest := &contests[i]
		if contest.Status != models.StatusEnded || ctx.Err() != nil {
			continue
		}

		lookups++
		solutionURL, err := p.finder.FindSolutionVideo(ctx, contest.Name)
		switch {
		case errors.Is(err, video.ErrNoVideo):
			log.Info("No solution video found", "name", contest.Name)
		case err != nil:
			log.Warn("Solution video lookup failed", "name", contest.Name, "error", err)
		default:
			contest.SolutionURL = &solutionURL
			log.Info("Solution video found", "name", contest.Name, "url", solutionURL)
		}
	}
	return lookups
}
