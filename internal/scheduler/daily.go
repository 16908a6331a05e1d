// Package scheduler posts the curated offer list once per local calendar day.
package scheduler

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/pauljones0/steam-deals-bot/internal/deals"
	"github.com/pauljones0/steam-deals-bot/internal/metrics"
	"github.com/pauljones0/steam-deals-bot/internal/models"
)

const dateLayout = "2006-01-02"

// FallbackLocation is used when the configured zone cannot be loaded.
var FallbackLocation = time.FixedZone("UTC+07:00", 7*60*60)

type DealsGetter interface {
	Get(ctx context.Context, q models.Query) ([]models.Offer, error)
}

type Publisher interface {
	Publish(ctx context.Context, channelID string, offers []models.Offer) error
}

type Options struct {
	ChannelID    string
	TagID        int
	RegionCode   string
	LanguageCode string
	Limit        int
	Hour         int
	Minute       int
	TimeZone     string
}

type Option func(*Daily)

// WithLastFired seeds the "already posted" date (YYYY-MM-DD). Without it a
// fresh process posts again on its first matching minute.
func WithLastFired(date string) Option {
	return func(d *Daily) { d.lastFired = date }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Daily) { d.now = now }
}

// Daily fires at most once per calendar day in its location, on the exact
// target minute. State is only touched from the goroutine calling Tick.
type Daily struct {
	service   DealsGetter
	publisher Publisher
	channelID string
	query     models.Query
	loc       *time.Location
	hour      int
	minute    int
	now       func() time.Time
	lastFired string
	log       zerolog.Logger
}

func New(service DealsGetter, publisher Publisher, opts Options, log zerolog.Logger, options ...Option) *Daily {
	defaults := deals.QueryDefaults{
		TagID:        opts.TagID,
		RegionCode:   opts.RegionCode,
		LanguageCode: opts.LanguageCode,
	}
	d := &Daily{
		service:   service,
		publisher: publisher,
		channelID: opts.ChannelID,
		query:     defaults.Query(opts.Limit),
		loc:       LoadLocation(opts.TimeZone, log),
		hour:      opts.Hour,
		minute:    opts.Minute,
		now:       time.Now,
		log:       log,
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// LoadLocation resolves name, falling back to a fixed UTC+07:00 offset.
func LoadLocation(name string, log zerolog.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("tz", name).Msg("Time zone not found, falling back to UTC+07:00")
		return FallbackLocation
	}
	return loc
}

// LastFired returns the local date of the last fire, or "" if none.
func (d *Daily) LastFired() string {
	return d.lastFired
}

// Run waits for ready, then ticks immediately and once a minute until ctx is
// done.
func (d *Daily) Run(ctx context.Context, ready <-chan struct{}) {
	select {
	case <-ctx.Done():
		return
	case <-ready:
	}

	d.log.Info().
		Str("channel_id", d.channelID).
		Str("tz", d.loc.String()).
		Int("hour", d.hour).
		Int("minute", d.minute).
		Msg("Daily scheduler started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	d.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("Daily scheduler stopped")
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick runs one step of the schedule.
func (d *Daily) Tick(ctx context.Context) {
	now := d.now().In(d.loc)
	today := now.Format(dateLayout)

	if d.lastFired == today {
		return
	}
	if now.Hour() != d.hour || now.Minute() != d.minute {
		return
	}

	got, err := d.service.Get(ctx, d.query)
	if err != nil {
		metrics.SchedulerFires.WithLabelValues("fetch_error").Inc()
		d.log.Error().Err(err).Msg("Daily fetch failed, will retry next minute")
		return
	}

	// The service may hand back a cached slice; never reorder it in place.
	offers := slices.DeleteFunc(slices.Clone(got), func(o models.Offer) bool { return o.DiscountPercent <= 0 })
	slices.SortStableFunc(offers, func(a, b models.Offer) int { return cmp.Compare(b.DiscountPercent, a.DiscountPercent) })

	if len(offers) == 0 {
		metrics.SchedulerFires.WithLabelValues("empty").Inc()
		d.log.Info().Str("date", today).Msg("No deals today")
		d.lastFired = today
		return
	}

	d.log.Info().Int("offers", len(offers)).Str("channel_id", d.channelID).Msg("Posting daily deals")
	if err := d.publisher.Publish(ctx, d.channelID, offers); err != nil {
		metrics.SchedulerFires.WithLabelValues("publish_error").Inc()
		d.log.Error().Err(err).Str("channel_id", d.channelID).Msg("Daily post failed")
	} else {
		metrics.SchedulerFires.WithLabelValues("published").Inc()
	}
	// A failed publish still consumes the day; partial batches are not re-sent.
	d.lastFired = today
}
