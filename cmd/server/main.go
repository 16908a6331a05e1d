package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pauljones0/steam-deals-bot/internal/config"
	"github.com/pauljones0/steam-deals-bot/internal/deals"
	"github.com/pauljones0/steam-deals-bot/internal/discord"
	"github.com/pauljones0/steam-deals-bot/internal/httpapi"
	"github.com/pauljones0/steam-deals-bot/internal/logger"
	"github.com/pauljones0/steam-deals-bot/internal/metrics"
	"github.com/pauljones0/steam-deals-bot/internal/notifier"
	"github.com/pauljones0/steam-deals-bot/internal/scheduler"
	"github.com/pauljones0/steam-deals-bot/internal/scraper"
	"github.com/pauljones0/steam-deals-bot/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The configured logger does not exist yet.
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("Critical error loading configuration")
	}

	root := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logger.Component(root, "main")
	log.Info().
		Str("steam_cc", cfg.SteamCC).
		Str("steam_lang", cfg.SteamLang).
		Dur("cache_ttl", cfg.CacheTTL()).
		Msg("Starting Steam deals bot")

	if err := run(cfg, root); err != nil {
		log.Fatal().Err(err).Msg("Bot stopped with error")
	}
	log.Info().Msg("Bot stopped")
}

func run(cfg *config.Config, root zerolog.Logger) error {
	log := logger.Component(root, "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	fetcher, err := transport.New(logger.Component(root, "transport"), transport.Options{
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.HTTPMaxRetries,
		AllowedHosts: transport.DefaultAllowedHosts,
	})
	if err != nil {
		return err
	}

	scraperLog := logger.Component(root, "scraper")
	source := scraper.NewSearchSource(fetcher, scraper.LoadConfig(scraperLog), scraperLog)
	enricher := scraper.NewAppDetailsEnricher(fetcher, scraperLog)

	concurrency := deals.ClampConcurrency(cfg.Concurrency)
	if concurrency != cfg.Concurrency {
		log.Warn().Int("requested", cfg.Concurrency).Int("using", concurrency).Msg("Enrichment concurrency out of range, clamped")
	}
	pipeline := deals.NewPipeline(source, enricher, concurrency, logger.Component(root, "pipeline"))
	service := deals.NewService(pipeline, cfg.CacheTTL(), logger.Component(root, "service"))

	defaults := deals.QueryDefaults{
		TagID:        cfg.CuratedTagID,
		RegionCode:   cfg.SteamCC,
		LanguageCode: cfg.SteamLang,
		DefaultLimit: cfg.DefaultLimit,
	}

	handler := discord.NewCommandHandler(service, defaults, logger.Component(root, "command"))
	bot, err := discord.New(cfg.DiscordToken, cfg.DiscordGuildID, handler, logger.Component(root, "discord"))
	if err != nil {
		return err
	}
	if err := bot.Open(); err != nil {
		return err
	}
	defer bot.Close()

	if channelID, ok := cfg.DealsChannelID(); ok {
		publisher := notifier.New(cfg.DiscordToken, logger.Component(root, "notifier"))
		daily := scheduler.New(service, publisher, scheduler.Options{
			ChannelID:    channelID,
			TagID:        cfg.CuratedTagID,
			RegionCode:   cfg.SteamCC,
			LanguageCode: cfg.SteamLang,
			Limit:        cfg.DailyLimit,
			Hour:         cfg.DailyHour,
			Minute:       cfg.DailyMinute,
			TimeZone:     cfg.ScheduleTZ,
		}, logger.Component(root, "scheduler"))
		go daily.Run(ctx, bot.Ready())
	} else {
		log.Warn().Msg("DISCORD_DEALS_CHANNEL_ID not set or not numeric, daily scheduler disabled")
	}

	api := httpapi.NewServer(service, defaults, prometheus.DefaultGatherer, logger.Component(root, "http"))
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Listening on port")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Received signal, shutting down gracefully")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	return nil
}
