package deals

import (
	"context"

	"github.com/pauljones0/steam-deals-bot/internal/models"
	"github.com/pauljones0/steam-deals-bot/internal/scraper"
)

// CandidateSource abstracts catalog discovery.
type CandidateSource interface {
	Discover(ctx context.Context, req scraper.DiscoverRequest) ([]int, error)
}

// ItemEnricher abstracts per-candidate detail lookups.
type ItemEnricher interface {
	Enrich(ctx context.Context, appID int, region, language string) (models.Offer, error)
}

// Runner produces ranked offers for a query.
type Runner interface {
	Run(ctx context.Context, q models.Query) ([]models.Offer, error)
}
