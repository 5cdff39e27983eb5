package util

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are stripped from contest links so the same contest keeps the same URL across runs.
var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "ref", "fbclid"}

// NormalizeURL resolves href against baseURL and removes tracking parameters and fragments.
// Only http and https results are accepted.
func NormalizeURL(baseURL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty link")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("failed to parse link %q: %w", href, err)
	}

	resolved := ref
	if !ref.IsAbs() {
		base, err := url.Parse(baseURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse base URL %q: %w", baseURL, err)
		}
		resolved = base.ResolveReference(ref)
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("invalid URL scheme %q: only http and https allowed", resolved.Scheme)
	}

	resolved.Fragment = ""
	resolved.RawFragment = ""
	queryParams := resolved.Query()
	for _, param := range trackingParams {
		queryParams.Del(param)
	}
	resolved.RawQuery = queryParams.Encode()
	return resolved.String(), nil
}
