package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pauljones0/contest-tracker/internal/config"
	"github.com/pauljones0/contest-tracker/internal/models"
	"github.com/pauljones0/contest-tracker/internal/util"
)

// ErrNoCards is returned when the rendered page contains no contest cards.
var ErrNoCards = errors.New("no contest cards found")

type Scraper interface {
	ScrapeContests(ctx context.Context) ([]models.ContestRecord, error)
}

type Client struct {
	browser   Browser
	selectors SelectorConfig
	pageURL   string
}

func New(cfg *config.Config, selectors SelectorConfig, browser Browser) *Client {
	return &Client{
		browser:   browser,
		selectors: selectors,
		pageURL:   cfg.AggregatorURL,
	}
}

// ScrapeContests renders the aggregator listing and extracts one raw record per
// contest card. Any failure aborts the whole scrape; no partial list is returned.
func (c *Client) ScrapeContests(ctx context.Context) ([]models.ContestRecord, error) {
	slog.Info("Rendering aggregator page", "url", c.pageURL, "engine", c.browser.Name())

	html, err := c.browser.Render(ctx, c.pageURL, c.selectors.ContestList.Card)
	if err != nil {
		return nil, fmt.Errorf("failed to render contest list: %w", err)
	}

	contests, err := ParseContestCards(strings.NewReader(html), c.selectors.ContestList, c.pageURL)
	if err != nil {
		return nil, err
	}
	slog.Info("Extracted contest cards", "count", len(contests))
	return contests, nil
}

// ParseContestCards extracts raw contest records from rendered HTML. Only
// Name, Platform, URL and Duration are populated; missing parts of a card
// become models.NotAvailable.
func ParseContestCards(r io.Reader, sel ListSelectors, baseURL string) ([]models.ContestRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered HTML: %w", err)
	}

	cards := doc.Find(sel.Card)
	if cards.Length() == 0 {
		return nil, fmt.Errorf("%w: no '%s' elements on %s. Potential page structure change", ErrNoCards, sel.Card, baseURL)
	}

	contests := make([]models.ContestRecord, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		var contest models.ContestRecord
		var parseErrors []string

		// 1. Heading: first line is the name, first token is the platform
		headingLines := renderedLines(card.Find(sel.Heading).First())
		if len(headingLines) > 0 {
			contest.Name = headingLines[0]
			contest.Platform = strings.Fields(headingLines[0])[0]
		} else {
			contest.Name = models.NotAvailable
			contest.Platform = models.NotAvailable
			parseErrors = append(parseErrors, "heading element not found")
		}

		// 2. Link
		contest.URL = models.NotAvailable
		if href, exists := card.Find(sel.Link).First().Attr("href"); exists {
			normalized, normErr := util.NormalizeURL(baseURL, href)
			if normErr == nil {
				contest.URL = normalized
			} else {
				parseErrors = append(parseErrors, normErr.Error())
			}
		} else {
			parseErrors = append(parseErrors, "contest link not found")
		}

		// 3. Status text, kept verbatim for classification
		statusLines := renderedLines(card.Find(sel.Status).First())
		if len(statusLines) > 0 {
			contest.Duration = strings.Join(statusLines, " ")
		} else {
			contest.Duration = models.NotAvailable
			parseErrors = append(parseErrors, "status element not found")
		}

		if len(parseErrors) > 0 {
			slog.Warn("Parsing issues on contest card", "index", i, "name", contest.Name, "issues", strings.Join(parseErrors, "; "))
		}
		contests = append(contests, contest)
	})

	return contests, nil
}
