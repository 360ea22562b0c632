package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// SearchConfig describes the upstream image-tag search service.
type SearchConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"BASE_URL"`
	ResultsPerPage int    `yaml:"results_per_page" envconfig:"RESULTS_PER_PAGE"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"API_TIMEOUT"`
	RetryBackoffMS int    `yaml:"retry_backoff_ms" envconfig:"API_RETRY_BACKOFF_MS"`
	ProxyURL       string `yaml:"proxy_url" envconfig:"PROXY_URL"`
}

// SessionsConfig controls pagination session lifetime.
type SessionsConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// DatabaseConfig holds Postgres connection settings. An empty host disables
// every feature that needs durable storage (subscriptions).
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// SubsConfig controls the keyword subscription checker.
type SubsConfig struct {
	CheckIntervalMinutes int `yaml:"check_interval_minutes" envconfig:"SUBS_CHECK_INTERVAL_MINUTES"`
	MaxPerUser           int `yaml:"max_per_user" envconfig:"SUBS_MAX_PER_USER"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline query updates for rate limit exclusions.
	UpdateInlineQuery = "inline_query"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
// - "inline_query": inline query updates
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the full bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Search    SearchConfig    `yaml:"search"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Database  DatabaseConfig  `yaml:"database"`
	Subs      SubsConfig      `yaml:"subscriptions"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultBaseURL is the public endpoint of the image-tag search service.
const DefaultBaseURL = "https://aitag.win"

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	cfg.Search.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Search.BaseURL), "/")
	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = DefaultBaseURL
	}
	if cfg.Search.ResultsPerPage <= 0 {
		cfg.Search.ResultsPerPage = 5
	}
	if cfg.Search.ResultsPerPage > 10 {
		return fmt.Errorf("search.results_per_page must be <= 10 (got %d)", cfg.Search.ResultsPerPage)
	}
	if cfg.Search.TimeoutSeconds <= 0 {
		cfg.Search.TimeoutSeconds = 30
	}
	if cfg.Search.RetryBackoffMS <= 0 {
		cfg.Search.RetryBackoffMS = 400
	}
	if proxy := strings.TrimSpace(cfg.Search.ProxyURL); proxy != "" {
		if !strings.Contains(proxy, "://") {
			return fmt.Errorf("search.proxy_url must include a scheme (got %q)", proxy)
		}
		cfg.Search.ProxyURL = proxy
	}

	if cfg.Sessions.TTLMinutes <= 0 {
		cfg.Sessions.TTLMinutes = 30
	}

	if strings.TrimSpace(cfg.Database.Host) != "" {
		if strings.TrimSpace(cfg.Database.Port) == "" {
			cfg.Database.Port = "5432"
		}
		if strings.TrimSpace(cfg.Database.SSLMode) == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
		if strings.TrimSpace(cfg.Database.User) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.user and database.name are required when database.host is set")
		}
	}

	if cfg.Subs.CheckIntervalMinutes <= 0 {
		cfg.Subs.CheckIntervalMinutes = 30
	}
	if cfg.Subs.MaxPerUser <= 0 {
		cfg.Subs.MaxPerUser = 20
	}
	return nil
}

// SubsEnabled reports whether durable storage is configured, which gates the
// subscription feature.
func (c *Config) SubsEnabled() bool {
	return c != nil && strings.TrimSpace(c.Database.Host) != ""
}
