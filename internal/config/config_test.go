package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
finnhub:
  api_key: "test_key"
  timeout: 15s
  max_retries: 2
  requests_per_sec: 10

monitor:
  price_change_threshold_pct: 4.0
  volume_ratio_threshold: 2.0
  tracking_duration: 10m
  poll_interval: 30s

news:
  fetch_interval: 1m
  fetch_limit: 25
  enabled: true

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

server:
  addr: ":9090"

logging:
  level: "debug"
  format: "text"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Finnhub.APIKey != "test_key" {
		t.Errorf("Unexpected api key: %s", cfg.Finnhub.APIKey)
	}

	if cfg.Finnhub.Timeout != 15*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.Finnhub.Timeout)
	}

	if cfg.Monitor.PriceChangeThresholdPct != 4.0 {
		t.Errorf("Unexpected price change threshold: %f", cfg.Monitor.PriceChangeThresholdPct)
	}

	if cfg.Monitor.TrackingDuration != 10*time.Minute {
		t.Errorf("Unexpected tracking duration: %v", cfg.Monitor.TrackingDuration)
	}

	if cfg.News.FetchLimit != 25 {
		t.Errorf("Unexpected news fetch limit: %d", cfg.News.FetchLimit)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Unexpected server addr: %s", cfg.Server.Addr)
	}

	// Defaults fill fields the file omits
	if cfg.Finnhub.BaseURL != "https://finnhub.io/api/v1" {
		t.Errorf("Unexpected default base url: %s", cfg.Finnhub.BaseURL)
	}

	if cfg.Monitor.SymbolDelay != 200*time.Millisecond {
		t.Errorf("Unexpected default symbol delay: %v", cfg.Monitor.SymbolDelay)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestAlertSettingsConversion(t *testing.T) {
	cfg := validConfig()
	cfg.Monitor.TrackingDuration = 5 * time.Minute
	cfg.Monitor.PollInterval = 10 * time.Second
	cfg.News.FetchInterval = 45 * time.Second
	cfg.Telegram.Enabled = true
	cfg.Telegram.BotToken = "tok"
	cfg.Telegram.ChatID = "chat"

	settings := cfg.AlertSettings()
	if settings.TrackingDurationMinutes != 5 {
		t.Errorf("Unexpected tracking duration minutes: %d", settings.TrackingDurationMinutes)
	}
	if settings.PollIntervalSeconds != 10 {
		t.Errorf("Unexpected poll interval seconds: %d", settings.PollIntervalSeconds)
	}
	if settings.NewsFetchIntervalSeconds != 45 {
		t.Errorf("Unexpected news fetch interval seconds: %d", settings.NewsFetchIntervalSeconds)
	}
	if !settings.TelegramEnabled {
		t.Error("Expected telegram to be enabled")
	}
}

func validConfig() *Config {
	return &Config{
		Finnhub: FinnhubConfig{
			BaseURL:        "https://finnhub.io/api/v1",
			APIKey:         "key",
			Timeout:        10 * time.Second,
			MaxRetries:     3,
			RetryDelayBase: time.Second,
			RequestsPerSec: 5,
		},
		Monitor: MonitorConfig{
			PriceChangeThresholdPct: 3.0,
			VolumeRatioThreshold:    1.5,
			TrackingDuration:        5 * time.Minute,
			PollInterval:            10 * time.Second,
			SymbolDelay:             200 * time.Millisecond,
		},
		News: NewsConfig{
			FetchInterval: 45 * time.Second,
			FetchLimit:    50,
			Enabled:       true,
		},
		Telegram: TelegramConfig{
			Enabled: false,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Finnhub.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "timeout too small",
			mutate:  func(c *Config) { c.Finnhub.Timeout = 100 * time.Millisecond },
			wantErr: true,
		},
		{
			name:    "non-positive price threshold",
			mutate:  func(c *Config) { c.Monitor.PriceChangeThresholdPct = 0 },
			wantErr: true,
		},
		{
			name:    "non-positive volume ratio threshold",
			mutate:  func(c *Config) { c.Monitor.VolumeRatioThreshold = -1 },
			wantErr: true,
		},
		{
			name:    "tracking duration below a minute",
			mutate:  func(c *Config) { c.Monitor.TrackingDuration = 30 * time.Second },
			wantErr: true,
		},
		{
			name:    "news fetch limit out of range",
			mutate:  func(c *Config) { c.News.FetchLimit = 500 },
			wantErr: true,
		},
		{
			name: "news limits ignored when disabled",
			mutate: func(c *Config) {
				c.News.Enabled = false
				c.News.FetchLimit = 500
			},
			wantErr: false,
		},
		{
			name: "missing telegram token when enabled",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.ChatID = "chat"
				// Missing BotToken
			},
			wantErr: true,
		},
		{
			name: "missing telegram chat id when enabled",
			mutate: func(c *Config) {
				c.Telegram.Enabled = true
				c.Telegram.BotToken = "tok"
			},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
