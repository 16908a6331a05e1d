package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

type SelectorConfig struct {
	SearchResults SearchSelectors `json:"search_results"`
}

type SearchSelectors struct {
	Row       string `json:"row"`        // e.g., "a.search_result_row"
	AppIDAttr string `json:"appid_attr"` // e.g., "data-ds-appid"
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
// Empty fields keep their default value.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	config := DefaultSelectors()
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}
	if config.SearchResults.Row == "" || config.SearchResults.AppIDAttr == "" {
		return SelectorConfig{}, fmt.Errorf("selector config is missing row or appid_attr")
	}

	return config, nil
}

// DefaultSelectors returns the fallback configuration if no JSON file is loaded.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		SearchResults: SearchSelectors{
			Row:       "a.search_result_row",
			AppIDAttr: "data-ds-appid",
		},
	}
}
