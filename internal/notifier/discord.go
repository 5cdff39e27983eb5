package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/contest-tracker/internal/models"
	"github.com/pauljones0/contest-tracker/internal/util"
)

const (
	colorSoon  = 16753920 // #FFA500, starts within the hour
	colorLater = 3447003  // #3498DB

	// Discord embed limits.
	maxFieldsPerEmbed = 25
	maxEmbedsPerMsg   = 10
	maxFieldName      = 256
	maxFieldValue     = 1024

	maxRetries = 3
)

type Client struct {
	webhookURL  string
	window      time.Duration
	client      *http.Client
	rateLimiter *rate.Limiter
	retryDelay  time.Duration
	now         func() time.Time
}

// New creates a digest client. An empty webhookURL makes Announce a no-op.
func New(webhookURL string, window time.Duration) *Client {
	return &Client{
		webhookURL: webhookURL,
		window:     window,
		client:     &http.Client{Timeout: 10 * time.Second},
		// Webhooks allow roughly 5 requests per 2 seconds.
		rateLimiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		retryDelay:  time.Second,
		now:         time.Now,
	}
}

// Announce posts the upcoming contests that start within the configured window.
func (c *Client) Announce(ctx context.Context, contests []models.ContestRecord) error {
	if c.webhookURL == "" {
		return nil
	}

	soon := startingWithin(contests, c.now(), c.window)
	if len(soon) == 0 {
		slog.Debug("No contests starting soon, skipping digest", "window", c.window)
		return nil
	}

	for i, payload := range buildPayloads(soon, c.now(), c.window) {
		if err := c.send(ctx, payload); err != nil {
			return fmt.Errorf("failed to send digest message %d: %w", i+1, err)
		}
	}
	slog.Info("Sent contest digest", "contests", len(soon))
	return nil
}

// startingWithin returns upcoming contests whose start lies in [now, now+window], earliest first.
func startingWithin(contests []models.ContestRecord, now time.Time, window time.Duration) []models.ContestRecord {
	var out []models.ContestRecord
	limit := now.Add(window)
	for _, contest := range contests {
		if contest.Status != models.StatusUpcoming || contest.StartTime == nil {
			continue
		}
		if contest.StartTime.Before(now) || contest.StartTime.After(limit) {
			continue
		}
		out = append(out, contest)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(*out[j].StartTime) })
	return out
}

// Internal structures
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbed struct {
	Title     string              `json:"title,omitempty"`
	Timestamp string              `json:"timestamp,omitempty"`
	Color     int                 `json:"color,omitempty"`
	Fields    []discordEmbedField `json:"fields,omitempty"`
	Footer    discordEmbedFooter  `json:"footer,omitempty"`
}

func formatContestField(contest models.ContestRecord) discordEmbedField {
	name := contest.Platform + " · " + contest.Name
	if contest.Platform == "" || strings.HasPrefix(contest.Name, contest.Platform) {
		name = contest.Name
	}

	// Discord renders <t:unix:F> in the reader's own time zone.
	unix := contest.StartTime.Unix()
	value := fmt.Sprintf("<t:%d:F> (<t:%d:R>)", unix, unix)
	if contest.URL != "" && contest.URL != models.NotAvailable {
		value += fmt.Sprintf("\n[Contest page](%s)", contest.URL)
	}

	return discordEmbedField{Name: truncate(name, maxFieldName), Value: truncate(value, maxFieldValue)}
}

// buildPayloads splits the digest so no message exceeds Discord's embed limits.
func buildPayloads(contests []models.ContestRecord, now time.Time, window time.Duration) []discordWebhookPayload {
	var embeds []discordEmbed
	for start := 0; start < len(contests); start += maxFieldsPerEmbed {
		end := min(start+maxFieldsPerEmbed, len(contests))
		chunk := contests[start:end]

		color := colorLater
		if chunk[0].StartTime.Sub(now) <= time.Hour {
			color = colorSoon
		}

		embed := discordEmbed{
			Color:     color,
			Timestamp: now.UTC().Format(time.RFC3339),
			Footer:    discordEmbedFooter{Text: fmt.Sprintf("%d contests in the next %s", len(contests), window)},
		}
		if start == 0 {
			embed.Title = "Upcoming contests"
		}
		for _, contest := range chunk {
			embed.Fields = append(embed.Fields, formatContestField(contest))
		}
		embeds = append(embeds, embed)
	}

	var payloads []discordWebhookPayload
	for start := 0; start < len(embeds); start += maxEmbedsPerMsg {
		end := min(start+maxEmbedsPerMsg, len(embeds))
		payloads = append(payloads, discordWebhookPayload{Embeds: embeds[start:end]})
	}
	return payloads
}

func (c *Client) send(ctx context.Context, payload discordWebhookPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return util.RetryWithBackoff(ctx, maxRetries, c.retryDelay, func(attempt int) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return util.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payloadBytes))
		if err != nil {
			return util.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("discord status: %s, body: %s", resp.Status, string(bodyBytes))
		slog.Warn("Discord webhook rejected digest", "status", resp.StatusCode, "attempt", attempt+1)
		return classifyResponse(resp, statusErr)
	})
}

// classifyResponse decides whether a failed webhook response is worth retrying.
// 429 honours Retry-After, 5xx backs off, any other status is permanent.
func classifyResponse(resp *http.Response, err error) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, convErr := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); convErr == nil && secs > 0 {
			return util.RetryAfter(err, time.Duration(secs*float64(time.Second)))
		}
		return err
	case resp.StatusCode >= 500:
		return err
	default:
		return util.Permanent(err)
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
