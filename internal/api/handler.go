package api

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"github.com/pauljones0/contest-tracker/internal/models"
	"github.com/pauljones0/contest-tracker/internal/scheduler"
)

// ContestReader is the read side of the contest store.
type ContestReader interface {
	ListContests(ctx context.Context) ([]models.ContestRecord, error)
}

// RunTrigger starts a background pipeline run when none is in flight.
type RunTrigger interface {
	TryStart(trigger scheduler.Trigger) bool
	State() scheduler.State
}

type Handler struct {
	store   ContestReader
	trigger RunTrigger
	siteURL string
}

func New(store ContestReader, trigger RunTrigger, siteURL string) *Handler {
	return &Handler{store: store, trigger: trigger, siteURL: siteURL}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /process-contests", h.ProcessContests)
	mux.HandleFunc("GET /api/contests", h.ListContests)
	mux.HandleFunc("GET /api/contests/feed", h.Feed)
}

type listResponse struct {
	Success bool                   `json:"success"`
	Data    []models.ContestRecord `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "run": h.trigger.State().String()})
}

// ProcessContests starts a manual run. The response does not wait for it.
func (h *Handler) ProcessContests(w http.ResponseWriter, r *http.Request) {
	if !h.trigger.TryStart(scheduler.TriggerManual) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Success: false,
			Message: "Contest processing already in progress",
			Error:   scheduler.ErrRunInProgress.Error(),
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "message": "Contest processing started."})
}

// ListContests returns stored contests sorted by start time, optionally
// filtered by platform (case-insensitive) and status.
func (h *Handler) ListContests(w http.ResponseWriter, r *http.Request) {
	platform := strings.TrimSpace(r.URL.Query().Get("platform"))
	status := models.ContestStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	switch status {
	case "", models.StatusUpcoming, models.StatusEnded, models.StatusUnknown:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success: false,
			Message: "Invalid status filter",
			Error:   fmt.Sprintf("status must be one of %s, %s, %s", models.StatusUpcoming, models.StatusEnded, models.StatusUnknown),
		})
		return
	}

	contests, err := h.store.ListContests(r.Context())
	if err != nil {
		slog.Error("Failed to list contests", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Success: false,
			Message: "Error fetching contests",
			Error:   err.Error(),
		})
		return
	}

	filtered := make([]models.ContestRecord, 0, len(contests))
	for _, c := range contests {
		if platform != "" && !strings.EqualFold(c.Platform, platform) {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		filtered = append(filtered, c)
	}

	writeJSON(w, http.StatusOK, listResponse{Success: true, Data: filtered})
}

// Feed renders the stored contests as an Atom feed.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	contests, err := h.store.ListContests(r.Context())
	if err != nil {
		slog.Error("Failed to list contests for feed", "error", err)
		http.Error(w, "Error fetching contests", http.StatusInternalServerError)
		return
	}

	atom, err := h.buildFeed(contests).ToAtom()
	if err != nil {
		slog.Error("Failed to generate contest feed", "error", err)
		http.Error(w, "Error generating feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	_, _ = w.Write([]byte(atom))
}

func (h *Handler) buildFeed(contests []models.ContestRecord) *feeds.Feed {
	updated := time.Time{}
	for _, c := range contests {
		if c.LastUpdated.After(updated) {
			updated = c.LastUpdated
		}
	}

	feed := &feeds.Feed{
		Title:       "Competitive Programming Contests",
		Description: "Upcoming and recently ended contests across platforms",
		Link:        &feeds.Link{Href: h.siteURL, Rel: "alternate", Type: "text/html"},
		Id:          "tag:contest-tracker,2026:feed",
		Updated:     updated,
	}

	for _, c := range contests {
		link := c.URL
		if link == models.NotAvailable {
			link = h.siteURL
		}

		var description strings.Builder
		fmt.Fprintf(&description, "<p><strong>Platform:</strong> %s</p>", html.EscapeString(c.Platform))
		fmt.Fprintf(&description, "<p><strong>Status:</strong> %s</p>", html.EscapeString(c.Duration))
		if c.StartTime != nil {
			fmt.Fprintf(&description, "<p><strong>Starts:</strong> %s</p>", c.StartTime.UTC().Format(time.RFC1123))
		}
		if solution := c.Solution(); solution != "" {
			fmt.Fprintf(&description, `<p><a href="%s">Solution video</a></p>`, html.EscapeString(solution))
		}

		created := c.LastUpdated
		if c.StartTime != nil {
			created = *c.StartTime
		}

		feed.Items = append(feed.Items, &feeds.Item{
			Title:       c.Name,
			Link:        &feeds.Link{Href: link, Rel: "alternate", Type: "text/html"},
			Id:          "tag:contest-tracker,2026:" + c.Key(),
			Description: description.String(),
			Created:     created,
			Updated:     c.LastUpdated,
		})
	}
	return feed
}

