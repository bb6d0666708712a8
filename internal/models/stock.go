// Package models defines the core domain entities: watchlist stocks, boom
// events, price samples, news articles, and alert settings.
package models

import (
	"errors"
	"strings"
	"time"
)

// Stock represents a single watchlist symbol and its last-known quote fields.
// Symbols are stored upper-cased.
type Stock struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	CompanyName   string    `json:"companyName,omitempty"`
	AddedAt       time.Time `json:"addedAt"`
	CurrentPrice  float64   `json:"currentPrice"`
	PreviousClose float64   `json:"previousClose"`
	Volume        int64     `json:"volume"`
	AvgVolume     int64     `json:"avgVolume"`
}

// Validate checks stock field constraints.
func (s *Stock) Validate() error {
	if s.Symbol == "" {
		return errors.New("stock symbol must not be empty")
	}
	if s.Symbol != strings.ToUpper(s.Symbol) {
		return errors.New("stock symbol must be upper-cased")
	}
	if s.CurrentPrice < 0 {
		return errors.New("current price must not be negative")
	}
	if s.PreviousClose < 0 {
		return errors.New("previous close must not be negative")
	}
	if s.Volume < 0 {
		return errors.New("volume must not be negative")
	}
	if s.AvgVolume < 0 {
		return errors.New("average volume must not be negative")
	}
	return nil
}

// Quote is a point-in-time quote for one symbol as returned by the data
// provider. A nil *Quote from the provider means "no data this cycle".
type Quote struct {
	CurrentPrice  float64 `json:"currentPrice"`
	PreviousClose float64 `json:"previousClose"`
	Volume        int64   `json:"volume"`
	ChangePct     float64 `json:"changePct"`
}

// CompanyProfile holds the minimal company metadata attached to a new
// watchlist entry.
type CompanyProfile struct {
	Name string `json:"name"`
}
