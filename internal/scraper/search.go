package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pauljones0/steam-deals-bot/internal/transport"
	"github.com/pauljones0/steam-deals-bot/internal/util"
)

const searchURL = "https://store.steampowered.com/search/results/"

// DiscoverRequest shapes one catalog search.
type DiscoverRequest struct {
	TagIDs         []int
	OnlyDiscounted bool
	RegionCode     string
	LanguageCode   string
	Count          int
}

// SearchSource discovers candidate app IDs from the store search endpoint.
type SearchSource struct {
	fetcher   transport.Fetcher
	selectors SearchSelectors
	log       zerolog.Logger
	url       string
}

func NewSearchSource(f transport.Fetcher, sel SelectorConfig, log zerolog.Logger) *SearchSource {
	return NewSearchSourceWithURL(f, sel, log, searchURL)
}

// NewSearchSourceWithURL points the source at a different search endpoint.
func NewSearchSourceWithURL(f transport.Fetcher, sel SelectorConfig, log zerolog.Logger, rawURL string) *SearchSource {
	return &SearchSource{
		fetcher:   f,
		selectors: sel.SearchResults,
		log:       log,
		url:       rawURL,
	}
}

// Discover returns candidate app IDs in result order with duplicates removed.
// An empty page is not an error.
func (s *SearchSource) Discover(ctx context.Context, req DiscoverRequest) ([]int, error) {
	params := url.Values{}
	params.Set("query", "")
	params.Set("start", "0")
	params.Set("count", strconv.Itoa(req.Count))
	params.Set("infinite", "1")
	if req.OnlyDiscounted {
		params.Set("specials", "1")
	}
	if len(req.TagIDs) > 0 {
		tags := make([]string, len(req.TagIDs))
		for i, id := range req.TagIDs {
			tags[i] = strconv.Itoa(id)
		}
		params.Set("tags", strings.Join(tags, ","))
	}
	params.Set("cc", req.RegionCode)
	params.Set("l", req.LanguageCode)

	s.log.Info().Ints("tags", req.TagIDs).Str("cc", req.RegionCode).Str("lang", req.LanguageCode).Int("count", req.Count).Msg("Searching store")
	raw, err := s.fetcher.Fetch(ctx, s.url, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}

	ids, err := s.extractAppIDs(searchResultsHTML(raw))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		s.log.Warn().Str("selector", s.selectors.Row).Msg("Search returned no rows; page structure may have changed")
	}
	return ids, nil
}

// searchResultsHTML unwraps the infinite-scroll JSON envelope. Plain HTML
// responses are returned unchanged.
func searchResultsHTML(raw string) string {
	var envelope struct {
		ResultsHTML string `json:"results_html"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || envelope.ResultsHTML == "" {
		return raw
	}
	return envelope.ResultsHTML
}

func (s *SearchSource) extractAppIDs(html string) ([]int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	seen := make(map[int]bool)
	var ids []int
	doc.Find(s.selectors.Row).Each(func(_ int, row *goquery.Selection) {
		attr, exists := row.Attr(s.selectors.AppIDAttr)
		if !exists {
			return
		}
		id, ok := util.ParseLeadingID(attr)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	})
	return ids, nil
}
