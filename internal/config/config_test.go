package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set test environment variables (auto-cleaned up after test)
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DISCORD_DEALS_CHANNEL_ID", "123456789")
	t.Setenv("STEAM_CC", "us")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.DiscordToken != "test-token" {
		t.Errorf("Expected test-token, got %s", cfg.DiscordToken)
	}
	if cfg.SteamCC != "us" {
		t.Errorf("Expected us, got %s", cfg.SteamCC)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected 9090, got %s", cfg.Port)
	}
	id, ok := cfg.DealsChannelID()
	if !ok || id != "123456789" {
		t.Errorf("DealsChannelID() = %q, %v, want 123456789, true", id, ok)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.SteamCC != "vn" {
		t.Errorf("Expected default region vn, got %s", cfg.SteamCC)
	}
	if cfg.SteamLang != "english" {
		t.Errorf("Expected default language english, got %s", cfg.SteamLang)
	}
	if cfg.CacheTTL() != 900*time.Second {
		t.Errorf("Expected default TTL 900s, got %s", cfg.CacheTTL())
	}
	if cfg.DefaultLimit != 10 {
		t.Errorf("Expected default limit 10, got %d", cfg.DefaultLimit)
	}
	if cfg.CuratedTagID != 1628 {
		t.Errorf("Expected default tag 1628, got %d", cfg.CuratedTagID)
	}
	if cfg.ScheduleTZ != "Asia/Ho_Chi_Minh" {
		t.Errorf("Expected default timezone Asia/Ho_Chi_Minh, got %s", cfg.ScheduleTZ)
	}
	if cfg.DailyLimit != 10 || cfg.DailyHour != 6 || cfg.DailyMinute != 0 {
		t.Errorf("Expected daily defaults 10 @ 06:00, got %d @ %02d:%02d", cfg.DailyLimit, cfg.DailyHour, cfg.DailyMinute)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Expected default concurrency 8, got %d", cfg.Concurrency)
	}
	if cfg.HTTPTimeout != 20*time.Second {
		t.Errorf("Expected default HTTP timeout 20s, got %s", cfg.HTTPTimeout)
	}
	if _, ok := cfg.DealsChannelID(); ok {
		t.Error("DealsChannelID() should be disabled when unset")
	}
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "   ")

	_, err := Load()
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("Load() error = %v, want ErrMissingToken", err)
	}
}

func TestLoad_InvalidInteger(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("CACHE_TTL_SECONDS", "not-a-number")

	if _, err := Load(); err == nil {
		t.Error("Load() should return error for invalid CACHE_TTL_SECONDS")
	}
}

func TestLoad_OutOfRangeHour(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DAILY_POST_HOUR", "24")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject DAILY_POST_HOUR=24")
	}
}

func TestDealsChannelID_NonNumeric(t *testing.T) {
	cfg := &Config{DealsChannel: "general"}
	if _, ok := cfg.DealsChannelID(); ok {
		t.Error("non-numeric channel should disable the scheduler")
	}
}
