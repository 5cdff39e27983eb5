package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pauljones0/contest-tracker/internal/config"
)

// Browser renders a page in a headless browser and returns its HTML once
// waitSelector matches. Implementations own the browser process for the
// duration of one call and release it on every return path.
type Browser interface {
	Name() string
	Render(ctx context.Context, pageURL, waitSelector string) (string, error)
}

// NewBrowser returns the engine selected by cfg.BrowserEngine.
func NewBrowser(cfg *config.Config) (Browser, error) {
	switch cfg.BrowserEngine {
	case config.EngineChromedp, "":
		return NewChromeBrowser(cfg.NavigationTimeout, cfg.SelectorTimeout), nil
	case config.EnginePlaywright:
		return NewPlaywrightBrowser(cfg.NavigationTimeout, cfg.SelectorTimeout), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.BrowserEngine)
	}
}

type ChromeBrowser struct {
	navigationTimeout time.Duration
	selectorTimeout   time.Duration
	allocatorOptions  []chromedp.ExecAllocatorOption
}

func NewChromeBrowser(navigationTimeout, selectorTimeout time.Duration) *ChromeBrowser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.WindowSize(1366, 900),
	)
	return &ChromeBrowser{
		navigationTimeout: navigationTimeout,
		selectorTimeout:   selectorTimeout,
		allocatorOptions:  opts,
	}
}

func (b *ChromeBrowser) Name() string { return config.EngineChromedp }

func (b *ChromeBrowser) Render(ctx context.Context, pageURL, waitSelector string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	// Start the browser on the long-lived context so the step timeouts below
	// do not tear the whole process down when they expire.
	if err := chromedp.Run(taskCtx); err != nil {
		return "", fmt.Errorf("failed to start chrome: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(taskCtx, b.navigationTimeout)
	defer cancelNav()
	slog.Debug("Navigating", "url", pageURL, "timeout", b.navigationTimeout)
	if err := chromedp.Run(navCtx, chromedp.Navigate(pageURL)); err != nil {
		return "", fmt.Errorf("navigation to %s failed: %w", pageURL, err)
	}

	waitCtx, cancelWait := context.WithTimeout(taskCtx, b.selectorTimeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitReady(waitSelector, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("waiting for %q on %s failed: %w", waitSelector, pageURL, err)
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read rendered HTML of %s: %w", pageURL, err)
	}
	return html, nil
}
