// Package monitor implements the market monitoring loop: it polls quotes
// for every watchlist symbol on a fixed interval, maintains per-symbol
// tumbling baseline windows, evaluates the boom predicate, drives the boom
// event lifecycle, and dispatches best-effort notifications.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/storage"
)

// QuoteSource supplies quotes for watchlist symbols. A nil quote with a nil
// error means "no data available this cycle" and is not an error.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Notifier delivers boom alerts through an external channel. Delivery is
// best-effort; the result is informational and never retried.
type Notifier interface {
	SendBoomAlert(alert models.BoomAlert) bool
}

// Status is the outward-facing monitor state.
type Status struct {
	IsRunning           bool `json:"isRunning"`
	PollIntervalSeconds int  `json:"pollIntervalSeconds"`
	TrackedSymbolCount  int  `json:"trackedSymbolCount"`
}

// Config holds monitor construction parameters.
type Config struct {
	// SymbolDelay paces outbound quote requests between symbols within one
	// cycle.
	SymbolDelay time.Duration
}

// trackingWindow is the per-symbol tumbling baseline. It feeds only the
// TriggerPrice stamped onto new boom events; detection never compares
// against it.
type trackingWindow struct {
	startPrice  float64
	startVolume int64
	startedAt   time.Time
}

// Monitor orchestrates polling cycles. All registries are mutated through
// the store; the monitor goroutine is the sole writer of boom events and
// tracking windows.
type Monitor struct {
	store    *storage.Store
	quotes   QuoteSource
	notifier Notifier
	metrics  *metrics.Registry
	config   Config

	now func() time.Time

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc

	windowsMu sync.Mutex
	windows   map[string]*trackingWindow

	notifyCh chan models.BoomAlert
}

// New creates a monitor. The notifier may be nil when notifications are
// disabled.
func New(store *storage.Store, quotes QuoteSource, notifier Notifier, m *metrics.Registry, config Config) *Monitor {
	mon := &Monitor{
		store:    store,
		quotes:   quotes,
		notifier: notifier,
		metrics:  m,
		config:   config,
		now:      time.Now,
		windows:  make(map[string]*trackingWindow),
		notifyCh: make(chan models.BoomAlert, 64),
	}
	go mon.notifyWorker()
	return mon
}

// Start begins polling. The first cycle runs synchronously before the
// ticker is armed; calling Start on a running monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		log.Info().Msg("market monitor already running")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.isRunning = true
	m.mu.Unlock()

	interval := time.Duration(m.store.Settings().PollIntervalSeconds) * time.Second
	log.Info().Dur("interval", interval).Msg("starting market monitor")

	m.runCycle(ctx)

	go m.loop(ctx, interval)
}

// Stop cancels future cycles and clears the ephemeral tracking windows. The
// symbol and boom registries are left intact; an in-flight cycle finishes
// cooperatively.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = false
	m.cancel()
	m.mu.Unlock()

	m.windowsMu.Lock()
	m.windows = make(map[string]*trackingWindow)
	m.windowsMu.Unlock()

	log.Info().Msg("market monitor stopped")
}

// Status reports the current monitor state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	running := m.isRunning
	m.mu.Unlock()

	m.windowsMu.Lock()
	tracked := len(m.windows)
	m.windowsMu.Unlock()

	return Status{
		IsRunning:           running,
		PollIntervalSeconds: m.store.Settings().PollIntervalSeconds,
		TrackedSymbolCount:  tracked,
	}
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

// runCycle executes one full polling cycle: the expiry sweep, then strictly
// sequential per-symbol processing. Per-symbol failures are logged and
// skipped; nothing aborts the cycle.
func (m *Monitor) runCycle(ctx context.Context) {
	start := m.now()

	if expired := m.store.CleanupExpiredBoomEvents(m.now()); expired > 0 {
		m.metrics.BoomsExpired.Add(float64(expired))
		log.Info().Int("count", expired).Msg("expired boom events")
	}

	settings := m.store.Settings()
	stocks := m.store.Stocks()
	m.metrics.TrackedSymbols.Set(float64(len(stocks)))

	for _, stock := range stocks {
		if ctx.Err() != nil {
			return
		}
		m.processSymbol(ctx, stock, settings)

		if m.config.SymbolDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.config.SymbolDelay):
			}
		}
	}

	m.metrics.CyclesTotal.Inc()
	m.metrics.CycleDuration.Observe(m.now().Sub(start).Seconds())
	log.Debug().Int("symbols", len(stocks)).Dur("took", m.now().Sub(start)).Msg("monitor cycle complete")
}

// processSymbol runs steps b-e of a cycle for one symbol: registry update,
// history append, window update, lifecycle transition. A failed or empty
// quote skips the symbol without touching its state.
func (m *Monitor) processSymbol(ctx context.Context, stock models.Stock, settings models.AlertSettings) {
	quote, err := m.quotes.GetQuote(ctx, stock.Symbol)
	if err != nil {
		m.metrics.QuoteFailures.Inc()
		log.Warn().Err(err).Str("symbol", stock.Symbol).Msg("quote fetch failed, skipping symbol")
		return
	}
	if quote == nil {
		m.metrics.QuoteFailures.Inc()
		log.Debug().Str("symbol", stock.Symbol).Msg("no quote data, skipping symbol")
		return
	}

	now := m.now()
	currentPrice := quote.CurrentPrice
	volume := quote.Volume

	// The registry's cached baselines win over the quote's; a fresh symbol
	// falls back to the quote's previous close and to its own volume.
	previousClose := stock.PreviousClose
	if previousClose == 0 {
		previousClose = quote.PreviousClose
	}
	avgVolume := stock.AvgVolume
	if avgVolume == 0 {
		avgVolume = volume
	}

	m.store.UpdateStockQuote(stock.Symbol, currentPrice, previousClose, volume)

	signal := Evaluate(currentPrice, previousClose, volume, avgVolume, settings)

	m.store.AddPriceSample(models.PriceSample{
		Symbol:      stock.Symbol,
		Timestamp:   now,
		Price:       currentPrice,
		Volume:      volume,
		ChangePct:   signal.PriceChangePct,
		VolumeRatio: signal.VolumeRatio,
	})

	trackingDuration := time.Duration(settings.TrackingDurationMinutes) * time.Minute
	window := m.updateWindow(stock.Symbol, currentPrice, volume, now, trackingDuration)

	if !signal.IsBoom {
		return
	}

	if existing, ok := m.store.ActiveBoomForSymbol(stock.Symbol, now); ok {
		m.store.RefreshBoomEvent(existing.ID, storage.BoomRefresh{
			CurrentPrice:   currentPrice,
			PriceChangePct: signal.PriceChangePct,
			Volume:         volume,
			VolumeRatio:    signal.VolumeRatio,
			UpdatePeak:     currentPrice > existing.PeakPrice,
		})
		return
	}

	event := m.store.AddBoomEvent(models.BoomEvent{
		Symbol:             stock.Symbol,
		CompanyName:        stock.CompanyName,
		DetectedAt:         now,
		ExpiresAt:          now.Add(trackingDuration),
		TriggerPrice:       window.startPrice,
		CurrentPrice:       currentPrice,
		PriceChangePct:     signal.PriceChangePct,
		Volume:             volume,
		AvgVolume:          avgVolume,
		VolumeRatio:        signal.VolumeRatio,
		PeakPrice:          currentPrice,
		PeakPriceChangePct: signal.PriceChangePct,
		IsActive:           true,
	})
	m.metrics.BoomsDetected.Inc()
	log.Info().
		Str("symbol", stock.Symbol).
		Float64("price_change_pct", signal.PriceChangePct).
		Float64("volume_ratio", signal.VolumeRatio).
		Time("expires_at", event.ExpiresAt).
		Msg("boom detected")

	if settings.TelegramEnabled && m.notifier != nil {
		m.enqueueAlert(models.BoomAlert{
			Symbol:         stock.Symbol,
			CompanyName:    stock.CompanyName,
			CurrentPrice:   currentPrice,
			PriceChangePct: signal.PriceChangePct,
			VolumeRatio:    signal.VolumeRatio,
			TriggerPrice:   window.startPrice,
			DetectedAt:     now,
		})
	}
}

// updateWindow returns the symbol's tracking window, creating it on first
// observation and unconditionally replacing the baseline once the tumbling
// duration has elapsed. The reset is independent of any boom state.
func (m *Monitor) updateWindow(symbol string, price float64, volume int64, now time.Time, duration time.Duration) trackingWindow {
	m.windowsMu.Lock()
	defer m.windowsMu.Unlock()

	window, ok := m.windows[symbol]
	if !ok {
		window = &trackingWindow{startPrice: price, startVolume: volume, startedAt: now}
		m.windows[symbol] = window
		return *window
	}

	if now.Sub(window.startedAt) > duration {
		log.Debug().Str("symbol", symbol).Msg("tracking window elapsed, resetting baseline")
		window.startPrice = price
		window.startVolume = volume
		window.startedAt = now
	}
	return *window
}

// enqueueAlert hands an alert to the background delivery worker without
// blocking the cycle. Alerts are dropped when the queue is full.
func (m *Monitor) enqueueAlert(alert models.BoomAlert) {
	select {
	case m.notifyCh <- alert:
	default:
		m.metrics.Notifications.WithLabelValues("dropped").Inc()
		log.Warn().Str("symbol", alert.Symbol).Msg("notification queue full, alert dropped")
	}
}

func (m *Monitor) notifyWorker() {
	for alert := range m.notifyCh {
		if m.notifier == nil {
			continue
		}
		if m.notifier.SendBoomAlert(alert) {
			m.metrics.Notifications.WithLabelValues("sent").Inc()
		} else {
			m.metrics.Notifications.WithLabelValues("failed").Inc()
		}
	}
}
