package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const watchURLPrefix = "https://www.youtube.com/watch?v="

// ErrNoVideo is returned when the search produced no usable result.
var ErrNoVideo = errors.New("no solution video found")

// Resolver finds solution videos on one YouTube channel.
type Resolver struct {
	service     *youtube.Service
	channelID   string
	rateLimiter *rate.Limiter
}

// New builds a resolver. interval is the minimum spacing between searches;
// extra client options are appended after the API key (tests use them to
// point the client at a local server).
func New(ctx context.Context, apiKey, channelID string, interval time.Duration, opts ...option.ClientOption) (*Resolver, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube API key is required")
	}
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("youtube.NewService: %w", err)
	}
	return &Resolver{
		service:     svc,
		channelID:   channelID,
		rateLimiter: rate.NewLimiter(rate.Every(interval), 1),
	}, nil
}

// FindSolutionVideo searches the channel for "<contestName> solutions" and
// returns the watch URL of the top hit. It returns ErrNoVideo when the search
// is empty and a wrapped error for transport or API failures.
func (r *Resolver) FindSolutionVideo(ctx context.Context, contestName string) (string, error) {
	if err := r.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	query := contestName + " solutions"
	slog.Debug("Searching solution video", "query", query, "channel", r.channelID)

	resp, err := r.service.Search.List([]string{"snippet"}).
		Q(query).
		ChannelId(r.channelID).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("youtube search for %q failed: %w", contestName, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.VideoId == "" {
		return "", fmt.Errorf("%w for %q", ErrNoVideo, contestName)
	}
	return watchURLPrefix + resp.Items[0].Id.VideoId, nil
}
