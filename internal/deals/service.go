package deals

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pauljones0/steam-deals-bot/internal/cache"
	"github.com/pauljones0/steam-deals-bot/internal/metrics"
	"github.com/pauljones0/steam-deals-bot/internal/models"
)

// Service answers queries from the result cache and runs the pipeline on a
// miss. Two concurrent misses for the same key may both run the pipeline;
// both writes are valid and the last one wins.
type Service struct {
	cache    *cache.ResultCache
	pipeline Runner
	ttl      time.Duration
	log      zerolog.Logger
}

func NewService(pipeline Runner, ttl time.Duration, log zerolog.Logger) *Service {
	return newService(pipeline, cache.New(), ttl, log)
}

func newService(pipeline Runner, c *cache.ResultCache, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		cache:    c,
		pipeline: pipeline,
		ttl:      ttl,
		log:      log,
	}
}

// Get returns the ranked offers for q. A cached value is returned as stored;
// callers must treat the slice as read-only.
func (s *Service) Get(ctx context.Context, q models.Query) ([]models.Offer, error) {
	key := q.CacheKey()
	if cached, ok := s.cache.Get(key); ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		s.log.Debug().Str("key", key).Int("items", len(cached)).Msg("Cache hit")
		return cached, nil
	}

	metrics.CacheRequests.WithLabelValues("miss").Inc()
	s.log.Debug().Str("key", key).Msg("Cache miss")

	offers, err := s.pipeline.Run(ctx, q)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, offers, s.ttl)
	s.log.Debug().Str("key", key).Dur("ttl", s.ttl).Int("items", len(offers)).Msg("Cache set")
	return offers, nil
}
