package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

type SelectorConfig struct {
	ContestList ListSelectors `json:"contest_list"`
}

// ListSelectors locate the pieces of one contest card. Heading, Status and Link
// are evaluated relative to each Card match.
type ListSelectors struct {
	Card    string `json:"card"`    // e.g., ".platform-card.glass-panel"
	Heading string `json:"heading"` // name on the first line, platform as the first token
	Status  string `json:"status"`  // "Starts in: ..." or "Ended ..."
	Link    string `json:"link"`
}

// LoadSelectors loads the selector configuration from the specified JSON file.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}

	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes parses selector configuration from raw JSON bytes.
// This supports loading from embedded data via go:embed.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	var config SelectorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}
	if err := config.validate(); err != nil {
		return SelectorConfig{}, err
	}

	return config, nil
}

func (c SelectorConfig) validate() error {
	l := c.ContestList
	if l.Card == "" || l.Heading == "" || l.Status == "" || l.Link == "" {
		return fmt.Errorf("selector config is incomplete: card, heading, status and link are all required")
	}
	return nil
}

// DefaultSelectors returns the fallback configuration if no JSON file is loaded.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		ContestList: ListSelectors{
			Card:    ".platform-card.glass-panel",
			Heading: ".platform-header",
			Status:  ".contest-status",
			Link:    "a",
		},
	}
}
