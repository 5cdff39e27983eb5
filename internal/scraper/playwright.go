package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/pauljones0/contest-tracker/internal/config"
)

type PlaywrightBrowser struct {
	navigationTimeout time.Duration
	selectorTimeout   time.Duration
	installOnce       sync.Once
}

func NewPlaywrightBrowser(navigationTimeout, selectorTimeout time.Duration) *PlaywrightBrowser {
	return &PlaywrightBrowser{
		navigationTimeout: navigationTimeout,
		selectorTimeout:   selectorTimeout,
	}
}

func (b *PlaywrightBrowser) Name() string { return config.EnginePlaywright }

func (b *PlaywrightBrowser) Render(ctx context.Context, pageURL, waitSelector string) (string, error) {
	b.installOnce.Do(func() {
		slog.Info("Installing Playwright driver and chromium (one-time setup)")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			slog.Warn("Playwright install reported an error", "error", err)
		}
	})
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pw, err := playwright.Run()
	if err != nil {
		return "", fmt.Errorf("failed to start playwright: %w", err)
	}
	defer func() {
		if err := pw.Stop(); err != nil {
			slog.Warn("Failed to stop playwright", "error", err)
		}
	}()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to launch chromium: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	// Playwright calls are not context-aware; honour cancellation between steps.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(b.navigationTimeout.Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("navigation to %s failed: %w", pageURL, err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := page.Locator(waitSelector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(b.selectorTimeout.Milliseconds())),
	}); err != nil {
		return "", fmt.Errorf("waiting for %q on %s failed: %w", waitSelector, pageURL, err)
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read rendered HTML of %s: %w", pageURL, err)
	}
	return html, nil
}
