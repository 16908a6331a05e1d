package deals

import "github.com/pauljones0/steam-deals-bot/internal/models"

const (
	MinLimit = 1
	MaxLimit = 20
)

func ClampLimit(n int) int {
	return max(MinLimit, min(n, MaxLimit))
}

// QueryDefaults holds the configured parts of every on-demand query.
type QueryDefaults struct {
	TagID        int
	RegionCode   string
	LanguageCode string
	DefaultLimit int
}

// Query builds the curated query for a requested count. Zero selects the
// default; anything else is clamped to [MinLimit, MaxLimit].
func (d QueryDefaults) Query(limit int) models.Query {
	if limit == 0 {
		limit = d.DefaultLimit
	}
	return models.Query{
		TagIDs:         []int{d.TagID},
		OnlyDiscounted: true,
		Limit:          ClampLimit(limit),
		RegionCode:     d.RegionCode,
		LanguageCode:   d.LanguageCode,
	}
}
