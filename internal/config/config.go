package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata" // schedule zones must resolve inside minimal containers

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"

	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"

	defaultChannelID = "UCqL-fzHtN3NQPbYqGymMbTA"
)

type Config struct {
	YouTubeAPIKey       string
	YouTubeChannelID    string
	VideoSearchInterval time.Duration

	StorageBackend      string
	ProjectID           string
	FirestoreCollection string
	SQLitePath          string

	AggregatorURL     string
	BrowserEngine     string
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	RunTimeout        time.Duration
	SelectorsPath     string

	ScrapeSchedule   string
	ScheduleLocation *time.Location

	Port              string
	DiscordWebhookURL string
	AnnounceWindow    time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY environment variable is required but not set")
	}

	backend := getEnv("STORAGE_BACKEND", BackendFirestore)
	if backend != BackendFirestore && backend != BackendSQLite {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q: must be %q or %q", backend, BackendFirestore, BackendSQLite)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if backend == BackendFirestore && projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required for the firestore backend")
	}

	engine := getEnv("BROWSER_ENGINE", EngineChromedp)
	if engine != EngineChromedp && engine != EnginePlaywright {
		return nil, fmt.Errorf("invalid BROWSER_ENGINE %q: must be %q or %q", engine, EngineChromedp, EnginePlaywright)
	}

	schedule := getEnv("SCRAPE_SCHEDULE", "0 0 * * *")
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid SCRAPE_SCHEDULE %q: %w", schedule, err)
	}

	tz := getEnv("SCHEDULE_TIMEZONE", "UTC")
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE %q: %w", tz, err)
	}

	cfg := &Config{
		YouTubeAPIKey:       apiKey,
		YouTubeChannelID:    getEnv("YOUTUBE_CHANNEL_ID", defaultChannelID),
		StorageBackend:      backend,
		ProjectID:           projectID,
		FirestoreCollection: getEnv("FIRESTORE_COLLECTION", "contests"),
		SQLitePath:          getEnv("SQLITE_PATH", "contests.db"),
		AggregatorURL:       getEnv("AGGREGATOR_URL", "https://cphelper.online/"),
		BrowserEngine:       engine,
		SelectorsPath:       os.Getenv("SELECTORS_CONFIG_PATH"),
		ScrapeSchedule:      schedule,
		ScheduleLocation:    location,
		Port:                getEnv("PORT", "8080"),
		DiscordWebhookURL:   os.Getenv("DISCORD_WEBHOOK_URL"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
	}

	if cfg.VideoSearchInterval, err = durationEnv("VIDEO_SEARCH_INTERVAL", "250ms"); err != nil {
		return nil, err
	}
	if cfg.NavigationTimeout, err = durationEnv("NAVIGATION_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.SelectorTimeout, err = durationEnv("SELECTOR_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = durationEnv("RUN_TIMEOUT", "10m"); err != nil {
		return nil, err
	}
	if cfg.AnnounceWindow, err = durationEnv("ANNOUNCE_WINDOW", "24h"); err != nil {
		return nil, err
	}

	if cfg.DiscordWebhookURL == "" {
		slog.Info("DISCORD_WEBHOOK_URL not set, contest digests will be skipped")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}
