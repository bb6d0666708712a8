package news

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/storage"
)

func TestExtractTickers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "dollar prefix",
			text: "Big move in $AAPL today",
			want: []string{"AAPL"},
		},
		{
			name: "exchange prefix",
			text: "Shares of Apple (NASDAQ:AAPL) surged",
			want: []string{"AAPL"},
		},
		{
			name: "bare uppercase word",
			text: "TSLA deliveries beat estimates",
			want: []string{"TSLA"},
		},
		{
			name: "stop words filtered",
			text: "NYSE and NASDAQ mixed as SEC meets with CEO about the IPO",
			want: []string{},
		},
		{
			name: "mixed sources deduplicated",
			text: "$MSFT rallies; MSFT and (NYSE:GME) lead gainers",
			want: []string{"GME", "MSFT"},
		},
		{
			name: "length bounds",
			text: "A $B TOOLONGG",
			want: []string{},
		},
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTickers(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTickers(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

type fakeSource struct {
	articles []models.NewsArticle
	newsErr  error
	quotes   map[string]*models.Quote
}

func (f *fakeSource) GetNews(_ context.Context, _ int) ([]models.NewsArticle, error) {
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	out := make([]models.NewsArticle, len(f.articles))
	copy(out, f.articles)
	return out, nil
}

func (f *fakeSource) GetCompanyProfile(_ context.Context, symbol string) *models.CompanyProfile {
	return &models.CompanyProfile{Name: symbol + " Corp"}
}

func (f *fakeSource) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	return nil, errors.New("no quote")
}

func storeSettings() models.AlertSettings {
	return models.AlertSettings{
		PriceChangeThresholdPct:  3.0,
		VolumeRatioThreshold:     1.5,
		TrackingDurationMinutes:  5,
		PollIntervalSeconds:      10,
		NewsFetchIntervalSeconds: 45,
	}
}

func newTestFetcher(t *testing.T, source *fakeSource) (*Fetcher, *storage.Store) {
	t.Helper()
	store := storage.New(storeSettings())
	f := NewFetcher(store, source, metrics.New(), Config{FetchLimit: 50})
	return f, store
}

func TestFetchAndProcess(t *testing.T) {
	source := &fakeSource{
		articles: []models.NewsArticle{
			{
				Headline:    "$ACME soars on earnings",
				Summary:     "Quarterly beat",
				URL:         "https://example.com/acme",
				PublishedAt: time.Now(),
				Tickers:     []string{"othr"},
			},
		},
		quotes: map[string]*models.Quote{
			"ACME": {CurrentPrice: 50, PreviousClose: 48, Volume: 900_000},
		},
	}
	f, store := newTestFetcher(t, source)

	f.fetchAndProcess(context.Background())

	news := store.News(0)
	if len(news) != 1 {
		t.Fatalf("expected 1 stored article, got %d", len(news))
	}
	// Provider tickers and extracted tickers are merged, upper-cased.
	tickers := append([]string(nil), news[0].Tickers...)
	sort.Strings(tickers)
	if !reflect.DeepEqual(tickers, []string{"ACME", "OTHR"}) {
		t.Errorf("article tickers = %v, want [ACME OTHR]", tickers)
	}

	// Both tickers were added to the watchlist.
	if store.SymbolCount() != 2 {
		t.Fatalf("SymbolCount = %d, want 2", store.SymbolCount())
	}

	// The one with a quote is seeded; first volume doubles as the average.
	acme, ok := store.Stock("ACME")
	if !ok {
		t.Fatal("ACME should be on the watchlist")
	}
	if acme.CompanyName != "ACME Corp" {
		t.Errorf("CompanyName = %s, want ACME Corp", acme.CompanyName)
	}
	if acme.CurrentPrice != 50 || acme.AvgVolume != 900_000 {
		t.Errorf("unexpected seeded quote: %+v", acme)
	}

	// The one without a quote is still added, unseeded.
	othr, ok := store.Stock("OTHR")
	if !ok {
		t.Fatal("OTHR should be on the watchlist")
	}
	if othr.CurrentPrice != 0 {
		t.Errorf("OTHR CurrentPrice = %v, want 0", othr.CurrentPrice)
	}
}

func TestFetchAndProcess_SkipsExistingSymbols(t *testing.T) {
	source := &fakeSource{
		articles: []models.NewsArticle{
			{Headline: "$AAPL update", URL: "https://example.com/1", PublishedAt: time.Now()},
		},
	}
	f, store := newTestFetcher(t, source)
	if _, err := store.AddStock(models.Stock{Symbol: "AAPL", CompanyName: "Apple Inc"}); err != nil {
		t.Fatalf("AddStock: %v", err)
	}

	f.fetchAndProcess(context.Background())

	if store.SymbolCount() != 1 {
		t.Errorf("SymbolCount = %d, want 1", store.SymbolCount())
	}
	st, _ := store.Stock("AAPL")
	if st.CompanyName != "Apple Inc" {
		t.Error("existing watchlist entry must not be overwritten")
	}
}

func TestFetchAndProcess_DeduplicatesAcrossCycles(t *testing.T) {
	source := &fakeSource{
		articles: []models.NewsArticle{
			{Headline: "no tickers here", URL: "https://example.com/same", PublishedAt: time.Now()},
		},
	}
	f, store := newTestFetcher(t, source)

	f.fetchAndProcess(context.Background())
	f.fetchAndProcess(context.Background())

	if got := len(store.News(0)); got != 1 {
		t.Errorf("news length = %d, want 1 after duplicate fetch", got)
	}
}

func TestFetchAndProcess_FetchError(t *testing.T) {
	source := &fakeSource{newsErr: errors.New("provider down")}
	f, store := newTestFetcher(t, source)

	f.fetchAndProcess(context.Background())

	if got := len(store.News(0)); got != 0 {
		t.Errorf("news length = %d, want 0", got)
	}
	if store.SymbolCount() != 0 {
		t.Errorf("SymbolCount = %d, want 0", store.SymbolCount())
	}
}

func TestFetcherStartStop(t *testing.T) {
	source := &fakeSource{}
	f, _ := newTestFetcher(t, source)

	if f.IsRunning() {
		t.Fatal("fetcher should start stopped")
	}
	f.Start()
	if !f.IsRunning() {
		t.Fatal("fetcher should be running after Start")
	}
	f.Start() // no-op
	f.Stop()
	if f.IsRunning() {
		t.Fatal("fetcher should be stopped after Stop")
	}
	f.Stop() // no-op
}
