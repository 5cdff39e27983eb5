package scraper

import (
	"embed"
	"log/slog"
)

//go:embed selectors.json
var embeddedSelectors embed.FS

// LoadConfig resolves the selector set for the aggregator page. An override
// file at path wins when it parses; otherwise the embedded selectors.json is
// used, and the compiled-in defaults are the last resort. An empty path skips
// the override.
func LoadConfig(path string) SelectorConfig {
	if path != "" {
		sel, err := LoadSelectors(path)
		if err == nil {
			slog.Info("Loaded selector override", "path", path)
			return sel
		}
		slog.Warn("Ignoring selector override", "path", path, "error", err)
	}

	data, err := embeddedSelectors.ReadFile("selectors.json")
	if err != nil {
		slog.Warn("Embedded selectors missing, using defaults", "error", err)
		return DefaultSelectors()
	}
	sel, err := LoadSelectorsFromBytes(data)
	if err != nil {
		slog.Warn("Embedded selectors invalid, using defaults", "error", err)
		return DefaultSelectors()
	}
	return sel
}
