package models

import "errors"

// AlertSettings is the runtime-adjustable monitoring configuration. It is
// seeded from the config file on startup and mutated only through the
// settings update operation.
type AlertSettings struct {
	PriceChangeThresholdPct  float64 `json:"priceChangeThresholdPct"`
	VolumeRatioThreshold     float64 `json:"volumeRatioThreshold"`
	TrackingDurationMinutes  int     `json:"trackingDurationMinutes"`
	PollIntervalSeconds      int     `json:"pollIntervalSeconds"`
	NewsFetchIntervalSeconds int     `json:"newsFetchIntervalSeconds"`
	TelegramEnabled          bool    `json:"telegramEnabled"`
}

// AlertSettingsPatch carries a partial settings update; nil fields are left
// unchanged.
type AlertSettingsPatch struct {
	PriceChangeThresholdPct  *float64 `json:"priceChangeThresholdPct,omitempty"`
	VolumeRatioThreshold     *float64 `json:"volumeRatioThreshold,omitempty"`
	TrackingDurationMinutes  *int     `json:"trackingDurationMinutes,omitempty"`
	PollIntervalSeconds      *int     `json:"pollIntervalSeconds,omitempty"`
	NewsFetchIntervalSeconds *int     `json:"newsFetchIntervalSeconds,omitempty"`
	TelegramEnabled          *bool    `json:"telegramEnabled,omitempty"`
}

// Validate checks settings field constraints.
func (s *AlertSettings) Validate() error {
	if s.PriceChangeThresholdPct <= 0 {
		return errors.New("price change threshold must be positive")
	}
	if s.VolumeRatioThreshold <= 0 {
		return errors.New("volume ratio threshold must be positive")
	}
	if s.TrackingDurationMinutes < 1 {
		return errors.New("tracking duration must be at least 1 minute")
	}
	if s.PollIntervalSeconds < 1 {
		return errors.New("poll interval must be at least 1 second")
	}
	if s.NewsFetchIntervalSeconds < 1 {
		return errors.New("news fetch interval must be at least 1 second")
	}
	return nil
}
