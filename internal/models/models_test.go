package models

import (
	"testing"
	"time"
)

func TestStockValidate(t *testing.T) {
	tests := []struct {
		name    string
		stock   Stock
		wantErr bool
	}{
		{"valid", Stock{Symbol: "AAPL", CurrentPrice: 100, Volume: 1000}, false},
		{"empty symbol", Stock{}, true},
		{"lowercase symbol", Stock{Symbol: "aapl"}, true},
		{"negative price", Stock{Symbol: "AAPL", CurrentPrice: -1}, true},
		{"negative previous close", Stock{Symbol: "AAPL", PreviousClose: -1}, true},
		{"negative volume", Stock{Symbol: "AAPL", Volume: -1}, true},
		{"negative avg volume", Stock{Symbol: "AAPL", AvgVolume: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stock.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlertSettingsValidate(t *testing.T) {
	valid := AlertSettings{
		PriceChangeThresholdPct:  3.0,
		VolumeRatioThreshold:     1.5,
		TrackingDurationMinutes:  5,
		PollIntervalSeconds:      10,
		NewsFetchIntervalSeconds: 45,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*AlertSettings)
	}{
		{"zero price threshold", func(s *AlertSettings) { s.PriceChangeThresholdPct = 0 }},
		{"negative volume threshold", func(s *AlertSettings) { s.VolumeRatioThreshold = -1 }},
		{"zero tracking duration", func(s *AlertSettings) { s.TrackingDurationMinutes = 0 }},
		{"zero poll interval", func(s *AlertSettings) { s.PollIntervalSeconds = 0 }},
		{"zero news interval", func(s *AlertSettings) { s.NewsFetchIntervalSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBoomEventActive(t *testing.T) {
	now := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event BoomEvent
		at    time.Time
		want  bool
	}{
		{"live", BoomEvent{IsActive: true, ExpiresAt: now.Add(time.Minute)}, now, true},
		{"past expiry", BoomEvent{IsActive: true, ExpiresAt: now.Add(-time.Minute)}, now, false},
		{"soft deleted", BoomEvent{IsActive: false, ExpiresAt: now.Add(time.Minute)}, now, false},
		{"at exact expiry", BoomEvent{IsActive: true, ExpiresAt: now}, now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Active(tt.at); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}
