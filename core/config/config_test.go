package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, expected longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Search.BaseURL != DefaultBaseURL {
		t.Fatalf("base_url = %q, expected default", cfg.Search.BaseURL)
	}
	if cfg.Search.ResultsPerPage != 5 {
		t.Fatalf("results_per_page = %d, expected 5", cfg.Search.ResultsPerPage)
	}
	if cfg.Search.TimeoutSeconds != 30 {
		t.Fatalf("timeout_seconds = %d, expected 30", cfg.Search.TimeoutSeconds)
	}
	if cfg.Sessions.TTLMinutes != 30 {
		t.Fatalf("ttl_minutes = %d, expected 30", cfg.Sessions.TTLMinutes)
	}
	if cfg.SubsEnabled() {
		t.Fatal("subscriptions should be disabled without database host")
	}
}

func TestNormalizeTrimsBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Search.BaseURL = "https://example.test/ "
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Search.BaseURL != "https://example.test" {
		t.Fatalf("base_url = %q, expected trailing slash stripped", cfg.Search.BaseURL)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := &Config{}
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestNormalizeWebhookValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "webhook"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}
	cfg.Webhook.URL = "https://bot.example.test/hook"
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q, expected alias to map to longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRejectsOversizedPage(t *testing.T) {
	cfg := validConfig()
	cfg.Search.ResultsPerPage = 11
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for results_per_page > 10")
	}
}

func TestNormalizeProxyNeedsScheme(t *testing.T) {
	cfg := validConfig()
	cfg.Search.ProxyURL = "127.0.0.1:7890"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for proxy url without scheme")
	}
	cfg.Search.ProxyURL = "socks5://127.0.0.1:7890"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizeDatabaseDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = "localhost"
	cfg.Database.User = "bot"
	cfg.Database.Name = "aitagbot"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Database.Port != "5432" || cfg.Database.SSLMode != "disable" {
		t.Fatalf("db defaults not applied: port=%q sslmode=%q", cfg.Database.Port, cfg.Database.SSLMode)
	}
	if !cfg.SubsEnabled() {
		t.Fatal("subscriptions should be enabled with database host")
	}
}

func TestNormalizeInvalidExcludeUpdate(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"Callback", "bogus"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for invalid exclude_updates value")
	}
}
