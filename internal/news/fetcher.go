// Package news implements the news ingestion loop: it fetches general
// financial news on its own interval, extracts candidate ticker symbols
// heuristically, stores deduplicated articles, and grows the watchlist from
// tickers it has not seen before.
package news

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/storage"
)

// Source supplies news articles and the symbol metadata needed to seed new
// watchlist entries.
type Source interface {
	GetNews(ctx context.Context, limit int) ([]models.NewsArticle, error)
	GetCompanyProfile(ctx context.Context, symbol string) *models.CompanyProfile
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Config holds fetcher construction parameters.
type Config struct {
	FetchLimit int
	// SymbolDelay paces provider lookups when adding tickers to the
	// watchlist.
	SymbolDelay time.Duration
}

// Fetcher runs the news ingestion loop.
type Fetcher struct {
	store   *storage.Store
	source  Source
	metrics *metrics.Registry
	config  Config

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewFetcher creates a news fetcher.
func NewFetcher(store *storage.Store, source Source, m *metrics.Registry, config Config) *Fetcher {
	if config.FetchLimit <= 0 {
		config.FetchLimit = 50
	}
	return &Fetcher{
		store:   store,
		source:  source,
		metrics: m,
		config:  config,
	}
}

// Start begins fetching. The first fetch runs synchronously before the
// ticker is armed; calling Start on a running fetcher is a no-op.
func (f *Fetcher) Start() {
	f.mu.Lock()
	if f.isRunning {
		f.mu.Unlock()
		log.Info().Msg("news fetcher already running")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.isRunning = true
	f.mu.Unlock()

	interval := time.Duration(f.store.Settings().NewsFetchIntervalSeconds) * time.Second
	log.Info().Dur("interval", interval).Msg("starting news fetcher")

	f.fetchAndProcess(ctx)

	go f.loop(ctx, interval)
}

// Stop cancels future fetches.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isRunning {
		return
	}
	f.isRunning = false
	f.cancel()
	log.Info().Msg("news fetcher stopped")
}

// IsRunning reports whether the fetch loop is active.
func (f *Fetcher) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isRunning
}

func (f *Fetcher) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.fetchAndProcess(ctx)
		}
	}
}

// fetchAndProcess runs one ingestion cycle. Failures are logged and the
// cycle is abandoned; the next scheduled cycle proceeds unaffected.
func (f *Fetcher) fetchAndProcess(ctx context.Context) {
	f.metrics.NewsFetches.Inc()

	articles, err := f.source.GetNews(ctx, f.config.FetchLimit)
	if err != nil {
		log.Warn().Err(err).Msg("news fetch failed")
		return
	}
	if len(articles) == 0 {
		log.Debug().Msg("no news articles fetched")
		return
	}

	newTickers := make(map[string]bool)
	for i := range articles {
		article := &articles[i]

		extracted := ExtractTickers(article.Headline + " " + article.Summary)
		merged := make(map[string]bool)
		for _, t := range article.Tickers {
			merged[strings.ToUpper(t)] = true
		}
		for _, t := range extracted {
			merged[t] = true
		}

		article.Tickers = article.Tickers[:0]
		for t := range merged {
			article.Tickers = append(article.Tickers, t)
			newTickers[t] = true
		}
	}

	added := f.store.AddNewsBatch(articles)
	f.metrics.NewsArticles.Add(float64(added))
	log.Info().Int("fetched", len(articles)).Int("stored", added).Msg("news articles processed")

	if len(newTickers) > 0 {
		f.addTickersToWatchlist(ctx, newTickers)
	}
}

// addTickersToWatchlist adds unseen tickers to the symbol registry, seeding
// each with a company profile and an initial quote. The first observed
// volume doubles as the initial average volume baseline.
func (f *Fetcher) addTickersToWatchlist(ctx context.Context, tickers map[string]bool) {
	existing := make(map[string]bool)
	for _, stock := range f.store.Stocks() {
		existing[stock.Symbol] = true
	}

	added := 0
	for ticker := range tickers {
		symbol := strings.ToUpper(ticker)
		if existing[symbol] {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		profile := f.source.GetCompanyProfile(ctx, symbol)

		stock := models.Stock{Symbol: symbol, CompanyName: profile.Name}
		if quote, err := f.source.GetQuote(ctx, symbol); err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Msg("initial quote fetch failed")
		} else if quote != nil {
			stock.CurrentPrice = quote.CurrentPrice
			stock.PreviousClose = quote.PreviousClose
			stock.Volume = quote.Volume
			stock.AvgVolume = quote.Volume
		}

		if _, err := f.store.AddStock(stock); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("failed to add symbol to watchlist")
			continue
		}
		added++
		f.metrics.SymbolsIngested.Inc()

		if f.config.SymbolDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.config.SymbolDelay):
			}
		}
	}

	if added > 0 {
		log.Info().Int("count", added).Msg("added symbols from news to watchlist")
	}
}
