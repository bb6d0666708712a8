// Package storage provides the in-memory registries backing the monitor:
// the symbol watchlist, boom events, per-symbol price history, ingested
// news, and alert settings. All state is process-local and volatile by
// design; nothing survives a restart.
//
// Each registry is guarded by its own RWMutex, so every exported method is
// safe for concurrent use. Returned values are copies; callers never hold
// references into the store's internals.
package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/models"
)

const (
	// maxSamplesPerSymbol bounds each symbol's price history log; the most
	// recent samples by timestamp are retained.
	maxSamplesPerSymbol = 1000

	// maxNewsArticles bounds the news log; the most recent articles by
	// publish time are retained.
	maxNewsArticles = 500
)

// BoomRefresh carries the current-observation fields applied to an active
// boom event on a refresh cycle. Peak fields are touched only when
// UpdatePeak is set.
type BoomRefresh struct {
	CurrentPrice   float64
	PriceChangePct float64
	Volume         int64
	VolumeRatio    float64
	UpdatePeak     bool
}

// Store holds all registries.
type Store struct {
	symbolsMu sync.RWMutex
	symbols   map[string]*models.Stock

	boomsMu   sync.RWMutex
	booms     map[string]*models.BoomEvent
	boomOrder []string

	historyMu sync.RWMutex
	history   map[string][]models.PriceSample

	newsMu   sync.RWMutex
	news     []models.NewsArticle
	newsURLs map[string]struct{}

	settingsMu sync.RWMutex
	settings   models.AlertSettings
}

// New creates an empty store seeded with the given alert settings.
func New(settings models.AlertSettings) *Store {
	return &Store{
		symbols:  make(map[string]*models.Stock),
		booms:    make(map[string]*models.BoomEvent),
		history:  make(map[string][]models.PriceSample),
		newsURLs: make(map[string]struct{}),
		settings: settings,
	}
}

// ─── Symbol registry ─────────────────────────────────────────────────────────

// Stocks returns all watchlist entries sorted by symbol.
func (s *Store) Stocks() []models.Stock {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()

	out := make([]models.Stock, 0, len(s.symbols))
	for _, st := range s.symbols {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Stock returns the watchlist entry for symbol, if present.
func (s *Store) Stock(symbol string) (models.Stock, bool) {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()

	st, ok := s.symbols[strings.ToUpper(symbol)]
	if !ok {
		return models.Stock{}, false
	}
	return *st, true
}

// AddStock adds a symbol to the watchlist. Adding an existing symbol is a
// no-op that returns the existing entry.
func (s *Store) AddStock(stock models.Stock) (models.Stock, error) {
	stock.Symbol = strings.ToUpper(stock.Symbol)
	if err := stock.Validate(); err != nil {
		return models.Stock{}, err
	}

	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	if existing, ok := s.symbols[stock.Symbol]; ok {
		return *existing, nil
	}

	stock.ID = uuid.New().String()
	if stock.AddedAt.IsZero() {
		stock.AddedAt = time.Now()
	}
	s.symbols[stock.Symbol] = &stock
	return stock, nil
}

// RemoveStock deletes a symbol from the watchlist and reports whether it was
// present. Boom events and price history for the symbol are retained.
func (s *Store) RemoveStock(symbol string) bool {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	key := strings.ToUpper(symbol)
	if _, ok := s.symbols[key]; !ok {
		return false
	}
	delete(s.symbols, key)
	return true
}

// UpdateStockQuote refreshes a symbol's cached quote fields and reports
// whether the symbol was present.
func (s *Store) UpdateStockQuote(symbol string, currentPrice, previousClose float64, volume int64) (models.Stock, bool) {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()

	st, ok := s.symbols[strings.ToUpper(symbol)]
	if !ok {
		return models.Stock{}, false
	}
	st.CurrentPrice = currentPrice
	st.PreviousClose = previousClose
	st.Volume = volume
	return *st, true
}

// SymbolCount returns the watchlist size.
func (s *Store) SymbolCount() int {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()
	return len(s.symbols)
}

// ─── Boom registry ───────────────────────────────────────────────────────────

// AddBoomEvent records a new boom event and assigns its ID.
func (s *Store) AddBoomEvent(ev models.BoomEvent) models.BoomEvent {
	s.boomsMu.Lock()
	defer s.boomsMu.Unlock()

	ev.ID = uuid.New().String()
	s.booms[ev.ID] = &ev
	s.boomOrder = append(s.boomOrder, ev.ID)
	return ev
}

// BoomEvents returns all boom events, active and expired, in detection order.
func (s *Store) BoomEvents() []models.BoomEvent {
	s.boomsMu.RLock()
	defer s.boomsMu.RUnlock()

	out := make([]models.BoomEvent, 0, len(s.boomOrder))
	for _, id := range s.boomOrder {
		out = append(out, *s.booms[id])
	}
	return out
}

// ActiveBoomEvents returns events that are live at instant now, in detection
// order.
func (s *Store) ActiveBoomEvents(now time.Time) []models.BoomEvent {
	s.boomsMu.RLock()
	defer s.boomsMu.RUnlock()

	var out []models.BoomEvent
	for _, id := range s.boomOrder {
		if ev := s.booms[id]; ev.Active(now) {
			out = append(out, *ev)
		}
	}
	return out
}

// BoomEvent returns the event with the given ID, if present.
func (s *Store) BoomEvent(id string) (models.BoomEvent, bool) {
	s.boomsMu.RLock()
	defer s.boomsMu.RUnlock()

	ev, ok := s.booms[id]
	if !ok {
		return models.BoomEvent{}, false
	}
	return *ev, true
}

// ActiveBoomForSymbol returns the symbol's live event at instant now, if any.
func (s *Store) ActiveBoomForSymbol(symbol string, now time.Time) (models.BoomEvent, bool) {
	s.boomsMu.RLock()
	defer s.boomsMu.RUnlock()

	key := strings.ToUpper(symbol)
	for _, id := range s.boomOrder {
		if ev := s.booms[id]; ev.Symbol == key && ev.Active(now) {
			return *ev, true
		}
	}
	return models.BoomEvent{}, false
}

// RefreshBoomEvent applies current-observation fields to an event and
// reports whether the event exists. Peak fields move only when
// refresh.UpdatePeak is set, keeping PeakPrice monotonic.
func (s *Store) RefreshBoomEvent(id string, refresh BoomRefresh) (models.BoomEvent, bool) {
	s.boomsMu.Lock()
	defer s.boomsMu.Unlock()

	ev, ok := s.booms[id]
	if !ok {
		return models.BoomEvent{}, false
	}
	ev.CurrentPrice = refresh.CurrentPrice
	ev.PriceChangePct = refresh.PriceChangePct
	ev.Volume = refresh.Volume
	ev.VolumeRatio = refresh.VolumeRatio
	if refresh.UpdatePeak {
		ev.PeakPrice = refresh.CurrentPrice
		ev.PeakPriceChangePct = refresh.PriceChangePct
	}
	return *ev, true
}

// ExpireBoomEvent soft-deletes an event and reports whether it existed.
func (s *Store) ExpireBoomEvent(id string) bool {
	s.boomsMu.Lock()
	defer s.boomsMu.Unlock()

	ev, ok := s.booms[id]
	if !ok {
		return false
	}
	ev.IsActive = false
	return true
}

// CleanupExpiredBoomEvents marks every event past its expiry as inactive and
// returns the number of events expired. Expired events are retained.
func (s *Store) CleanupExpiredBoomEvents(now time.Time) int {
	s.boomsMu.Lock()
	defer s.boomsMu.Unlock()

	expired := 0
	for _, ev := range s.booms {
		if ev.IsActive && ev.ExpiresAt.Before(now) {
			ev.IsActive = false
			expired++
		}
	}
	return expired
}

// ─── Price history log ───────────────────────────────────────────────────────

// AddPriceSample appends a sample to the symbol's history log, assigns its
// ID, and enforces the per-symbol cap by recency.
func (s *Store) AddPriceSample(sample models.PriceSample) models.PriceSample {
	sample.Symbol = strings.ToUpper(sample.Symbol)
	sample.ID = uuid.New().String()
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	log := append(s.history[sample.Symbol], sample)
	if len(log) > maxSamplesPerSymbol {
		sort.Slice(log, func(i, j int) bool { return log[i].Timestamp.After(log[j].Timestamp) })
		log = log[:maxSamplesPerSymbol]
	}
	s.history[sample.Symbol] = log
	return sample
}

// PriceHistory returns up to limit samples for the symbol, most recent
// first. A non-positive limit defaults to 100.
func (s *Store) PriceHistory(symbol string, limit int) []models.PriceSample {
	if limit <= 0 {
		limit = 100
	}

	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	log := s.history[strings.ToUpper(symbol)]
	out := make([]models.PriceSample, len(log))
	copy(out, log)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// LatestPrice returns the most recent sample for the symbol, if any.
func (s *Store) LatestPrice(symbol string) (models.PriceSample, bool) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	log := s.history[strings.ToUpper(symbol)]
	if len(log) == 0 {
		return models.PriceSample{}, false
	}
	latest := log[0]
	for _, sample := range log[1:] {
		if sample.Timestamp.After(latest.Timestamp) {
			latest = sample
		}
	}
	return latest, true
}

// ─── News log ────────────────────────────────────────────────────────────────

// AddNews stores an article unless one with the same URL already exists,
// and reports whether it was added. The log is capped by publish time.
func (s *Store) AddNews(article models.NewsArticle) (models.NewsArticle, bool) {
	s.newsMu.Lock()
	defer s.newsMu.Unlock()
	return s.addNewsLocked(article)
}

// AddNewsBatch stores articles in order, skipping URL duplicates, and
// returns the number added.
func (s *Store) AddNewsBatch(articles []models.NewsArticle) int {
	s.newsMu.Lock()
	defer s.newsMu.Unlock()

	added := 0
	for _, article := range articles {
		if _, ok := s.addNewsLocked(article); ok {
			added++
		}
	}
	return added
}

func (s *Store) addNewsLocked(article models.NewsArticle) (models.NewsArticle, bool) {
	if _, dup := s.newsURLs[article.URL]; dup {
		return models.NewsArticle{}, false
	}

	article.ID = uuid.New().String()
	if article.FetchedAt.IsZero() {
		article.FetchedAt = time.Now()
	}
	s.news = append(s.news, article)
	s.newsURLs[article.URL] = struct{}{}

	if len(s.news) > maxNewsArticles {
		sort.Slice(s.news, func(i, j int) bool {
			return s.news[i].PublishedAt.After(s.news[j].PublishedAt)
		})
		for _, dropped := range s.news[maxNewsArticles:] {
			delete(s.newsURLs, dropped.URL)
		}
		s.news = s.news[:maxNewsArticles]
	}
	return article, true
}

// News returns up to limit articles, most recently published first. A
// non-positive limit defaults to 50.
func (s *Store) News(limit int) []models.NewsArticle {
	if limit <= 0 {
		limit = 50
	}

	s.newsMu.RLock()
	defer s.newsMu.RUnlock()

	out := make([]models.NewsArticle, len(s.news))
	copy(out, s.news)
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NewsByTicker returns up to limit articles mentioning the ticker, most
// recently published first. A non-positive limit defaults to 20.
func (s *Store) NewsByTicker(ticker string, limit int) []models.NewsArticle {
	if limit <= 0 {
		limit = 20
	}
	key := strings.ToUpper(ticker)

	s.newsMu.RLock()
	defer s.newsMu.RUnlock()

	var out []models.NewsArticle
	for _, article := range s.news {
		for _, t := range article.Tickers {
			if strings.ToUpper(t) == key {
				out = append(out, article)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ─── Alert settings ──────────────────────────────────────────────────────────

// Settings returns the current alert settings.
func (s *Store) Settings() models.AlertSettings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

// UpdateSettings applies a partial update and returns the resulting
// settings. The update is rejected wholesale if the result fails
// validation.
func (s *Store) UpdateSettings(patch models.AlertSettingsPatch) (models.AlertSettings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	next := s.settings
	if patch.PriceChangeThresholdPct != nil {
		next.PriceChangeThresholdPct = *patch.PriceChangeThresholdPct
	}
	if patch.VolumeRatioThreshold != nil {
		next.VolumeRatioThreshold = *patch.VolumeRatioThreshold
	}
	if patch.TrackingDurationMinutes != nil {
		next.TrackingDurationMinutes = *patch.TrackingDurationMinutes
	}
	if patch.PollIntervalSeconds != nil {
		next.PollIntervalSeconds = *patch.PollIntervalSeconds
	}
	if patch.NewsFetchIntervalSeconds != nil {
		next.NewsFetchIntervalSeconds = *patch.NewsFetchIntervalSeconds
	}
	if patch.TelegramEnabled != nil {
		next.TelegramEnabled = *patch.TelegramEnabled
	}
	if err := next.Validate(); err != nil {
		return s.settings, err
	}
	s.settings = next
	return next, nil
}
