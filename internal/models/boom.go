package models

import "time"

// BoomEvent represents a detected episode of sustained price/volume momentum
// for one symbol, bounded by an expiry time. Expired events are retained for
// historical queries; a symbol has at most one event satisfying
// IsActive && ExpiresAt after now at any instant.
type BoomEvent struct {
	ID                 string    `json:"id"`
	Symbol             string    `json:"symbol"`
	CompanyName        string    `json:"companyName,omitempty"`
	DetectedAt         time.Time `json:"detectedAt"`
	ExpiresAt          time.Time `json:"expiresAt"`
	TriggerPrice       float64   `json:"triggerPrice"`
	CurrentPrice       float64   `json:"currentPrice"`
	PriceChangePct     float64   `json:"priceChangePct"`
	Volume             int64     `json:"volume"`
	AvgVolume          int64     `json:"avgVolume"`
	VolumeRatio        float64   `json:"volumeRatio"`
	PeakPrice          float64   `json:"peakPrice"`
	PeakPriceChangePct float64   `json:"peakPriceChangePct"`
	IsActive           bool      `json:"isActive"`
}

// Active reports whether the event is live at instant t.
func (b *BoomEvent) Active(t time.Time) bool {
	return b.IsActive && b.ExpiresAt.After(t)
}

// BoomAlert is the notification payload dispatched when a boom event is
// first detected.
type BoomAlert struct {
	Symbol         string
	CompanyName    string
	CurrentPrice   float64
	PriceChangePct float64
	VolumeRatio    float64
	TriggerPrice   float64
	DetectedAt     time.Time
}

// PriceSample is one per-cycle observation appended to a symbol's history log.
type PriceSample struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Timestamp   time.Time `json:"timestamp"`
	Price       float64   `json:"price"`
	Volume      int64     `json:"volume"`
	ChangePct   float64   `json:"changePct"`
	VolumeRatio float64   `json:"volumeRatio"`
}
