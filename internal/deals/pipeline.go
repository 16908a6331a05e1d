package deals

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/pauljones0/steam-deals-bot/internal/metrics"
	"github.com/pauljones0/steam-deals-bot/internal/models"
	"github.com/pauljones0/steam-deals-bot/internal/scraper"
)

const (
	waveSize      = 25
	minCandidates = 10
	maxCandidates = 50

	DefaultConcurrency = 8
	MaxConcurrency     = 20
)

// ErrFetchFailed is returned when discovery fails. No partial result is
// produced in that case.
var ErrFetchFailed = errors.New("fetch failed")

// ClampConcurrency bounds n to [1, MaxConcurrency].
func ClampConcurrency(n int) int {
	return max(1, min(n, MaxConcurrency))
}

// Pipeline discovers candidates, enriches them in waves under a shared
// admission gate, and ranks the accepted offers.
//
// Enrichment stops after the first wave that brings the accepted count to
// max(limit, 10). The result is therefore the best of the examined
// candidates, not necessarily of every candidate discovery returned.
type Pipeline struct {
	source   CandidateSource
	enricher ItemEnricher
	gate     *semaphore.Weighted
	log      zerolog.Logger
}

func NewPipeline(source CandidateSource, enricher ItemEnricher, concurrency int, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		source:   source,
		enricher: enricher,
		gate:     semaphore.NewWeighted(int64(ClampConcurrency(concurrency))),
		log:      log,
	}
}

type enrichResult struct {
	index int
	offer models.Offer
	err   error
}

type rankedOffer struct {
	index int
	offer models.Offer
}

func (p *Pipeline) Run(ctx context.Context, q models.Query) ([]models.Offer, error) {
	start := time.Now()
	defer func() { metrics.PipelineDuration.Observe(time.Since(start).Seconds()) }()

	log := p.log.With().Str("run_id", uuid.NewString()).Logger()
	target := max(q.Limit, minCandidates)

	ids, err := p.source.Discover(ctx, scraper.DiscoverRequest{
		TagIDs:         q.TagIDs,
		OnlyDiscounted: q.OnlyDiscounted,
		RegionCode:     q.RegionCode,
		LanguageCode:   q.LanguageCode,
		Count:          min(target, maxCandidates),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	log.Info().Int("candidates", len(ids)).Msg("Discovered candidates")
	if len(ids) == 0 {
		return []models.Offer{}, nil
	}

	var accepted []rankedOffer
	for offset := 0; offset < len(ids); offset += waveSize {
		end := min(offset+waveSize, len(ids))
		accepted = append(accepted, p.runWave(ctx, log, ids[offset:end], offset, q)...)
		metrics.PipelineWaves.Inc()

		if len(accepted) >= target {
			if end < len(ids) {
				log.Debug().Int("accepted", len(accepted)).Int("skipped", len(ids)-end).Msg("Enough offers, stopping early")
			}
			break
		}
	}

	// Waves complete in any order; restore discovery order before the
	// stable sort so ties keep their discovery position.
	slices.SortFunc(accepted, func(a, b rankedOffer) int { return cmp.Compare(a.index, b.index) })
	slices.SortStableFunc(accepted, func(a, b rankedOffer) int {
		return cmp.Compare(b.offer.DiscountPercent, a.offer.DiscountPercent)
	})

	n := min(len(accepted), max(q.Limit, 0))
	result := make([]models.Offer, n)
	for i := 0; i < n; i++ {
		result[i] = accepted[i].offer
	}
	log.Info().Int("accepted", len(accepted)).Int("returned", n).Dur("elapsed", time.Since(start)).Msg("Pipeline finished")
	return result, nil
}

// runWave enriches every id concurrently and collects the outcomes from a
// results channel. It returns only after every call in the wave finished.
func (p *Pipeline) runWave(ctx context.Context, log zerolog.Logger, ids []int, offset int, q models.Query) []rankedOffer {
	results := make(chan enrichResult, len(ids))

	for i, id := range ids {
		go func(index, appID int) {
			if err := p.gate.Acquire(ctx, 1); err != nil {
				results <- enrichResult{index: index, err: err}
				return
			}
			defer p.gate.Release(1)

			offer, err := p.enricher.Enrich(ctx, appID, q.RegionCode, q.LanguageCode)
			results <- enrichResult{index: index, offer: offer, err: err}
		}(offset+i, id)
	}

	var accepted []rankedOffer
	for range ids {
		res := <-results
		outcome := enrichOutcome(res)
		metrics.PipelineEnrichments.WithLabelValues(outcome).Inc()
		if outcome != "accepted" {
			if outcome == "error" {
				log.Warn().Err(res.err).Int("index", res.index).Msg("Enrichment failed, skipping candidate")
			} else {
				log.Debug().Err(res.err).Int("index", res.index).Str("reason", outcome).Msg("Skipping candidate")
			}
			continue
		}
		accepted = append(accepted, rankedOffer{index: res.index, offer: res.offer})
	}
	return accepted
}

func enrichOutcome(res enrichResult) string {
	switch {
	case res.err == nil && res.offer.DiscountPercent > 0:
		return "accepted"
	case res.err == nil, errors.Is(res.err, scraper.ErrNotDiscounted):
		return "not_discounted"
	case errors.Is(res.err, scraper.ErrNotFound):
		return "not_found"
	case errors.Is(res.err, scraper.ErrMalformed):
		return "malformed"
	default:
		return "error"
	}
}
