package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pauljones0/steam-deals-bot/internal/models"
	"github.com/pauljones0/steam-deals-bot/internal/transport"
	"github.com/pauljones0/steam-deals-bot/internal/util"
	"github.com/pauljones0/steam-deals-bot/internal/validator"
)

const appDetailsURL = "https://store.steampowered.com/api/appdetails"

// Enrichment skip reasons. The pipeline drops the candidate on any of them.
var (
	ErrNotDiscounted = errors.New("app is not discounted")
	ErrNotFound      = errors.New("app not found")
	ErrMalformed     = errors.New("malformed app details")
)

type appDetailsEnvelope struct {
	Success bool           `json:"success"`
	Data    *appDetailsDTO `json:"data"`
}

type appDetailsDTO struct {
	SteamAppID    int               `json:"steam_appid"`
	Name          string            `json:"name"`
	IsFree        bool              `json:"is_free"`
	HeaderImage   string            `json:"header_image"`
	PriceOverview *priceOverviewDTO `json:"price_overview"`
}

type priceOverviewDTO struct {
	Currency         string `json:"currency"`
	Initial          int    `json:"initial"`
	Final            int    `json:"final"`
	DiscountPercent  int    `json:"discount_percent"`
	InitialFormatted string `json:"initial_formatted"`
	FinalFormatted   string `json:"final_formatted"`
}

// AppDetailsEnricher turns a candidate app ID into an Offer using the store's
// appdetails endpoint.
type AppDetailsEnricher struct {
	fetcher   transport.Fetcher
	validator *validator.Validator
	log       zerolog.Logger
	url       string
}

func NewAppDetailsEnricher(f transport.Fetcher, log zerolog.Logger) *AppDetailsEnricher {
	return NewAppDetailsEnricherWithURL(f, log, appDetailsURL)
}

// NewAppDetailsEnricherWithURL points the enricher at a different endpoint.
func NewAppDetailsEnricherWithURL(f transport.Fetcher, log zerolog.Logger, rawURL string) *AppDetailsEnricher {
	return &AppDetailsEnricher{
		fetcher:   f,
		validator: validator.New(),
		log:       log,
		url:       rawURL,
	}
}

// Enrich fetches and parses details for one app. It returns ErrNotDiscounted,
// ErrNotFound or ErrMalformed for candidates that cannot become Offers, and a
// wrapped transport error when the fetch itself failed.
func (e *AppDetailsEnricher) Enrich(ctx context.Context, appID int, region, language string) (models.Offer, error) {
	params := url.Values{}
	params.Set("appids", strconv.Itoa(appID))
	params.Set("cc", region)
	params.Set("l", language)

	raw, err := e.fetcher.Fetch(ctx, e.url, params)
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to fetch app details for %d: %w", appID, err)
	}

	offer, err := parseAppDetails(appID, raw)
	if err != nil {
		return models.Offer{}, err
	}
	if err := e.validator.ValidateStruct(offer); err != nil {
		return models.Offer{}, fmt.Errorf("%w: app %d: %v", ErrMalformed, appID, err)
	}
	return offer, nil
}

func parseAppDetails(appID int, raw string) (models.Offer, error) {
	var payload map[string]appDetailsEnvelope
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.Offer{}, fmt.Errorf("%w: app %d: %v", ErrMalformed, appID, err)
	}

	envelope, ok := payload[strconv.Itoa(appID)]
	if !ok || !envelope.Success || envelope.Data == nil {
		return models.Offer{}, fmt.Errorf("%w: app %d", ErrNotFound, appID)
	}

	data := envelope.Data
	if data.IsFree || data.PriceOverview == nil || data.PriceOverview.DiscountPercent <= 0 {
		return models.Offer{}, fmt.Errorf("%w: app %d", ErrNotDiscounted, appID)
	}

	price := data.PriceOverview
	offer := models.Offer{
		AppID:           appID,
		Name:            util.CleanWhitespace(data.Name),
		DiscountPercent: price.DiscountPercent,
		FinalPrice:      util.CleanWhitespace(price.FinalFormatted),
		OriginalPrice:   util.CleanWhitespace(price.InitialFormatted),
		DetailURL:       util.AppURL(appID),
		ImageURL:        data.HeaderImage,
	}
	if offer.FinalPrice == "" {
		offer.FinalPrice = "N/A"
	}
	return offer, nil
}
