//go:build integration

package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pauljones0/contest-tracker/internal/config"
)

// Drives a real headless Chrome against a page that inserts its cards from
// JavaScript, so the selector wait is exercised.
func TestIntegration_ChromeBrowser(t *testing.T) {
	page := `<!DOCTYPE html>
<html><body><div id="root"></div>
<script>
setTimeout(function () {
	document.getElementById("root").innerHTML =
		'<div class="platform-card glass-panel">' +
		'<div class="platform-header">AtCoder Beginner Contest 350</div>' +
		'<div class="contest-status">Starts in: 2h 0m 0s</div>' +
		'<a href="/abc350">Open</a></div>';
}, 200);
</script></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	cfg := &config.Config{AggregatorURL: srv.URL + "/"}
	c := New(cfg, DefaultSelectors(), NewChromeBrowser(20*time.Second, 5*time.Second))

	contests, err := c.ScrapeContests(context.Background())
	if err != nil {
		t.Fatalf("ScrapeContests() error = %v", err)
	}
	if len(contests) != 1 {
		t.Fatalf("Expected 1 contest, got %d", len(contests))
	}
	if contests[0].Platform != "AtCoder" {
		t.Errorf("Platform = %q", contests[0].Platform)
	}
	if contests[0].URL != srv.URL+"/abc350" {
		t.Errorf("URL = %q", contests[0].URL)
	}
}

func TestIntegration_ChromeBrowser_SelectorTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>nothing here</body></html>`)
	}))
	defer srv.Close()

	b := NewChromeBrowser(20*time.Second, time.Second)
	if _, err := b.Render(context.Background(), srv.URL, ".platform-card.glass-panel"); err == nil {
		t.Fatal("Expected selector wait to time out")
	}
}
