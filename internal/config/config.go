package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"stockpulse/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Finnhub  FinnhubConfig  `mapstructure:"finnhub"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	News     NewsConfig     `mapstructure:"news"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FinnhubConfig holds quote/news provider configuration
type FinnhubConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// MonitorConfig holds boom-detection behavior configuration
type MonitorConfig struct {
	PriceChangeThresholdPct float64       `mapstructure:"price_change_threshold_pct"`
	VolumeRatioThreshold    float64       `mapstructure:"volume_ratio_threshold"`
	TrackingDuration        time.Duration `mapstructure:"tracking_duration"`
	PollInterval            time.Duration `mapstructure:"poll_interval"`
	SymbolDelay             time.Duration `mapstructure:"symbol_delay"`
}

// NewsConfig holds news ingestion configuration
type NewsConfig struct {
	FetchInterval time.Duration `mapstructure:"fetch_interval"`
	FetchLimit    int           `mapstructure:"fetch_limit"`
	Enabled       bool          `mapstructure:"enabled"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("STOCKPULSE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Finnhub defaults
	v.SetDefault("finnhub.base_url", "https://finnhub.io/api/v1")
	v.SetDefault("finnhub.timeout", "10s")
	v.SetDefault("finnhub.max_retries", 3)
	v.SetDefault("finnhub.retry_delay_base", "1s")
	v.SetDefault("finnhub.requests_per_sec", 5.0)

	// Monitor defaults
	v.SetDefault("monitor.price_change_threshold_pct", 3.0)
	v.SetDefault("monitor.volume_ratio_threshold", 1.5)
	v.SetDefault("monitor.tracking_duration", "5m")
	v.SetDefault("monitor.poll_interval", "10s")
	v.SetDefault("monitor.symbol_delay", "200ms")

	// News defaults
	v.SetDefault("news.fetch_interval", "45s")
	v.SetDefault("news.fetch_limit", 50)
	v.SetDefault("news.enabled", true)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Server defaults
	v.SetDefault("server.addr", ":8080")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Finnhub.BaseURL == "" {
		return fmt.Errorf("finnhub.base_url is required")
	}
	if c.Finnhub.Timeout < time.Second {
		return fmt.Errorf("finnhub.timeout must be at least 1 second")
	}
	if c.Finnhub.MaxRetries < 1 {
		return fmt.Errorf("finnhub.max_retries must be at least 1")
	}
	if c.Finnhub.RequestsPerSec <= 0 {
		return fmt.Errorf("finnhub.requests_per_sec must be positive")
	}

	if c.Monitor.PriceChangeThresholdPct <= 0 {
		return fmt.Errorf("monitor.price_change_threshold_pct must be positive")
	}
	if c.Monitor.VolumeRatioThreshold <= 0 {
		return fmt.Errorf("monitor.volume_ratio_threshold must be positive")
	}
	if c.Monitor.TrackingDuration < time.Minute {
		return fmt.Errorf("monitor.tracking_duration must be at least 1 minute")
	}
	if c.Monitor.PollInterval < time.Second {
		return fmt.Errorf("monitor.poll_interval must be at least 1 second")
	}
	if c.Monitor.SymbolDelay < 0 {
		return fmt.Errorf("monitor.symbol_delay must not be negative")
	}

	if c.News.Enabled {
		if c.News.FetchInterval < time.Second {
			return fmt.Errorf("news.fetch_interval must be at least 1 second")
		}
		if c.News.FetchLimit < 1 || c.News.FetchLimit > 200 {
			return fmt.Errorf("news.fetch_limit must be between 1 and 200")
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// AlertSettings converts the static monitor/news configuration into the
// runtime-adjustable settings seeded into the store.
func (c *Config) AlertSettings() models.AlertSettings {
	return models.AlertSettings{
		PriceChangeThresholdPct:  c.Monitor.PriceChangeThresholdPct,
		VolumeRatioThreshold:     c.Monitor.VolumeRatioThreshold,
		TrackingDurationMinutes:  int(c.Monitor.TrackingDuration / time.Minute),
		PollIntervalSeconds:      int(c.Monitor.PollInterval / time.Second),
		NewsFetchIntervalSeconds: int(c.News.FetchInterval / time.Second),
		TelegramEnabled:          c.Telegram.Enabled,
	}
}
