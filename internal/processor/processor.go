package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pauljones0/contest-tracker/internal/models"
	"github.com/pauljones0/contest-tracker/internal/scraper"
	"github.com/pauljones0/contest-tracker/internal/validator"
)

// Processor runs one scrape, enrich and persist cycle.
type Processor interface {
	ProcessContests(ctx context.Context, log *slog.Logger) error
}

type ContestProcessor struct {
	store     ContestStore
	finder    SolutionFinder
	announcer ContestAnnouncer
	scraper   scraper.Scraper
	validator *validator.Validator
	now       func() time.Time
}

// New builds a ContestProcessor. announcer may be nil, in which case no digest is sent.
func New(store ContestStore, finder SolutionFinder, announcer ContestAnnouncer, s scraper.Scraper) *ContestProcessor {
	return &ContestProcessor{
		store:     store,
		finder:    finder,
		announcer: announcer,
		scraper:   s,
		validator: validator.New(),
		now:       time.Now,
	}
}

// ProcessContests scrapes the aggregator, enriches every record, and replaces
// the stored snapshot with the result. Scrape and persistence failures abort
// the run and leave the previous snapshot in place.
func (p *ContestProcessor) ProcessContests(ctx context.Context, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	contests, err := p.scraper.ScrapeContests(ctx)
	if err != nil {
		return fmt.Errorf("failed to scrape contest list: %w", err)
	}
	log.Info("Successfully scraped contest list", "count", len(contests))

	classify(log, p.now(), contests)
	batch := p.prepareBatch(log, contests)

	lookups := p.attachSolutions(ctx, log, batch)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled during enrichment: %w", err)
	}

	if err := p.store.ReplaceContests(ctx, batch); err != nil {
		return fmt.Errorf("failed to persist %d contests: %w", len(batch), err)
	}

	counts := countByStatus(batch)
	log.Info("Finished processing",
		"persisted", len(batch),
		"upcoming", counts[models.StatusUpcoming],
		"ended", counts[models.StatusEnded],
		"unknown", counts[models.StatusUnknown],
		"video_lookups", lookups,
	)

	if p.announcer != nil {
		if err := p.announcer.Announce(ctx, batch); err != nil {
			log.Warn("Failed to send contest digest", "error", err)
		}
	}
	return nil
}

// prepareBatch drops records that fail validation, then deduplicates the rest
// on (name, platform). The last valid occurrence wins and keeps its position.
func (p *ContestProcessor) prepareBatch(log *slog.Logger, contests []models.ContestRecord) []models.ContestRecord {
	valid := make([]models.ContestRecord, 0, len(contests))
	for _, contest := range contests {
		if err := p.validator.Contest(contest); err != nil {
			log.Warn("Skipping invalid contest", "name", contest.Name, "platform", contest.Platform, "error", err)
			continue
		}
		valid = append(valid, contest)
	}

	last := make(map[string]int, len(valid))
	for i := range valid {
		last[valid[i].Key()] = i
	}

	batch := make([]models.ContestRecord, 0, len(last))
	for i, contest := range valid {
		if last[contest.Key()] != i {
			log.Debug("Dropping duplicate contest", "name", contest.Name, "platform", contest.Platform)
			continue
		}
		batch = append(batch, contest)
	}
	return batch
}

func countByStatus(contests []models.ContestRecord) map[models.ContestStatus]int {
	counts := make(map[models.ContestStatus]int, 3)
	for _, c := range contests {
		counts[c.Status]++
	}
	return counts
}
