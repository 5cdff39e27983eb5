package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/contest-tracker/internal/api"
	"github.com/pauljones0/contest-tracker/internal/config"
	"github.com/pauljones0/contest-tracker/internal/models"
	"github.com/pauljones0/contest-tracker/internal/notifier"
	"github.com/pauljones0/contest-tracker/internal/processor"
	"github.com/pauljones0/contest-tracker/internal/scheduler"
	"github.com/pauljones0/contest-tracker/internal/scraper"
	"github.com/pauljones0/contest-tracker/internal/storage"
	"github.com/pauljones0/contest-tracker/internal/video"
)

type contestStore interface {
	ReplaceContests(ctx context.Context, contests []models.ContestRecord) error
	ListContests(ctx context.Context) ([]models.ContestRecord, error)
	Close() error
}

func main() {
	slog.Info("Starting contest tracker server...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Critical error initializing contest store", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	resolver, err := video.New(ctx, cfg.YouTubeAPIKey, cfg.YouTubeChannelID, cfg.VideoSearchInterval)
	if err != nil {
		slog.Error("Critical error initializing YouTube client", "error", err)
		os.Exit(1)
	}

	browser, err := scraper.NewBrowser(cfg)
	if err != nil {
		slog.Error("Critical error selecting browser engine", "error", err)
		os.Exit(1)
	}
	s := scraper.New(cfg, scraper.LoadConfig(cfg.SelectorsPath), browser)

	var announcer processor.ContestAnnouncer
	if cfg.DiscordWebhookURL != "" {
		announcer = notifier.New(cfg.DiscordWebhookURL, cfg.AnnounceWindow)
	}

	p := processor.New(store, resolver, announcer, s)
	sched := scheduler.New(p, cfg.ScrapeSchedule, cfg.ScheduleLocation, cfg.RunTimeout)

	mux := http.NewServeMux()
	api.New(store, sched, cfg.AggregatorURL).Register(mux)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Listening on port", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return sched.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

func openStore(ctx context.Context, cfg *config.Config) (contestStore, error) {
	if cfg.StorageBackend == config.BackendSQLite {
		return storage.NewSQLite(ctx, cfg.SQLitePath)
	}
	return storage.New(ctx, cfg.ProjectID, cfg.FirestoreCollection)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		slog.Warn("Invalid LOG_LEVEL, using info", "level", level)
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
