// Package metrics exposes Prometheus instrumentation for the monitor and
// news ingestion loops.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for stockpulse.
type Registry struct {
	registry *prometheus.Registry

	// Monitor loop metrics
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	QuoteFailures prometheus.Counter
	BoomsDetected prometheus.Counter
	BoomsExpired  prometheus.Counter
	Notifications *prometheus.CounterVec

	// News ingestion metrics
	NewsFetches     prometheus.Counter
	NewsArticles    prometheus.Counter
	SymbolsIngested prometheus.Counter

	// Watchlist size
	TrackedSymbols prometheus.Gauge
}

// New creates a registry with all stockpulse metrics registered.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_monitor_cycles_total",
			Help: "Total number of completed monitor cycles",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpulse_monitor_cycle_duration_seconds",
			Help:    "Duration of one full monitor cycle in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		}),
		QuoteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_quote_failures_total",
			Help: "Total number of per-symbol quote fetches that returned no data",
		}),
		BoomsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_booms_detected_total",
			Help: "Total number of boom events created",
		}),
		BoomsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_booms_expired_total",
			Help: "Total number of boom events marked expired by the sweep",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_notifications_total",
			Help: "Total number of boom alert notification attempts by result",
		}, []string{"result"}),

		NewsFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_news_fetches_total",
			Help: "Total number of news fetch cycles",
		}),
		NewsArticles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_news_articles_total",
			Help: "Total number of news articles stored",
		}),
		SymbolsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_symbols_ingested_total",
			Help: "Total number of symbols added to the watchlist from news",
		}),

		TrackedSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockpulse_tracked_symbols",
			Help: "Current watchlist size",
		}),
	}

	r.registry.MustRegister(
		r.CyclesTotal,
		r.CycleDuration,
		r.QuoteFailures,
		r.BoomsDetected,
		r.BoomsExpired,
		r.Notifications,
		r.NewsFetches,
		r.NewsArticles,
		r.SymbolsIngested,
		r.TrackedSymbols,
	)
	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
