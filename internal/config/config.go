package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/pauljones0/steam-deals-bot/internal/validator"
)

// ErrMissingToken is returned when DISCORD_TOKEN is not set.
var ErrMissingToken = errors.New("DISCORD_TOKEN environment variable is required but not set")

type Config struct {
	DiscordToken   string `envconfig:"DISCORD_TOKEN"`
	DiscordGuildID string `envconfig:"DISCORD_GUILD_ID"`
	DealsChannel   string `envconfig:"DISCORD_DEALS_CHANNEL_ID"`

	SteamCC      string `envconfig:"STEAM_CC" default:"vn" validate:"required"`
	SteamLang    string `envconfig:"STEAM_LANG" default:"english" validate:"required"`
	CuratedTagID int    `envconfig:"METROIDVANIA_TAG_ID" default:"1628" validate:"gt=0"`
	DefaultLimit int    `envconfig:"DEFAULT_LIMIT" default:"10" validate:"gte=1"`
	CacheTTLSecs int    `envconfig:"CACHE_TTL_SECONDS" default:"900" validate:"gte=0"`
	Concurrency  int    `envconfig:"ENRICH_CONCURRENCY" default:"8"`
	ScheduleTZ   string `envconfig:"SCHEDULE_TZ" default:"Asia/Ho_Chi_Minh"`
	DailyLimit   int    `envconfig:"DAILY_POST_LIMIT" default:"10" validate:"gte=1"`
	DailyHour    int    `envconfig:"DAILY_POST_HOUR" default:"6" validate:"gte=0,lte=23"`
	DailyMinute  int    `envconfig:"DAILY_POST_MINUTE" default:"0" validate:"gte=0,lte=59"`

	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"20s" validate:"gt=0"`
	HTTPMaxRetries int           `envconfig:"HTTP_MAX_RETRIES" default:"3" validate:"gte=0"`
	Port           string        `envconfig:"PORT" default:"8080" validate:"numeric"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	cfg.DiscordToken = strings.TrimSpace(cfg.DiscordToken)
	if cfg.DiscordToken == "" {
		return nil, ErrMissingToken
	}
	cfg.DiscordGuildID = strings.TrimSpace(cfg.DiscordGuildID)
	cfg.DealsChannel = strings.TrimSpace(cfg.DealsChannel)

	if err := validator.New().ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// DealsChannelID returns the destination channel for the daily post. A
// missing or non-numeric value disables the scheduler.
func (c *Config) DealsChannelID() (string, bool) {
	if c.DealsChannel == "" {
		return "", false
	}
	for _, r := range c.DealsChannel {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return c.DealsChannel, true
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}
