package scraper

import (
	"embed"
	"os"

	"github.com/rs/zerolog"
)

//go:embed selectors.json
var embeddedSelectors embed.FS

// LoadConfig tries to load selectors in the following order:
// 1. External file named by STEAM_SELECTORS_PATH, when set
// 2. Embedded selectors.json
// 3. Hardcoded defaults
func LoadConfig(log zerolog.Logger) SelectorConfig {
	if configPath := os.Getenv("STEAM_SELECTORS_PATH"); configPath != "" {
		fileSel, err := LoadSelectors(configPath)
		if err == nil {
			log.Info().Str("path", configPath).Msg("Loaded selectors from external file")
			return fileSel
		}
		log.Warn().Err(err).Str("path", configPath).Msg("Failed to load external selectors, trying embedded config")
	}

	data, err := embeddedSelectors.ReadFile("selectors.json")
	if err == nil {
		sel, parseErr := LoadSelectorsFromBytes(data)
		if parseErr == nil {
			log.Debug().Msg("Loaded selectors from embedded config")
			return sel
		}
		log.Warn().Err(parseErr).Msg("Embedded selectors failed to parse")
	}

	log.Info().Msg("Using hardcoded default selectors")
	return DefaultSelectors()
}
