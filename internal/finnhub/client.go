// Package finnhub provides the market data client: quotes, company
// profiles, and general news, served from Finnhub with a Polygon fallback.
// A nil quote means "no data available this cycle", not an error.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"stockpulse/internal/models"
)

const polygonBaseURL = "https://api.polygon.io"

// Config holds client construction parameters.
type Config struct {
	BaseURL        string
	APIKey         string
	PolygonAPIKey  string
	PolygonBaseURL string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	RequestsPerSec float64
}

// Client fetches quotes and news from Finnhub, falling back to Polygon when
// a Finnhub key is missing or a call fails.
type Client struct {
	baseURL        string
	apiKey         string
	polygonBaseURL string
	polygonKey     string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
	limiter        *rate.Limiter
	finnhubBreaker *gobreaker.CircuitBreaker
	polygonBreaker *gobreaker.CircuitBreaker
}

// NewClient creates a market data client.
func NewClient(cfg Config) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	if cfg.PolygonBaseURL == "" {
		cfg.PolygonBaseURL = polygonBaseURL
	}

	newBreaker := func(name string) *gobreaker.CircuitBreaker {
		return gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("provider", name).
					Str("from", from.String()).Str("to", to.String()).
					Msg("circuit breaker state change")
			},
		})
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		polygonBaseURL: cfg.PolygonBaseURL,
		polygonKey:     cfg.PolygonAPIKey,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		finnhubBreaker: newBreaker("finnhub"),
		polygonBreaker: newBreaker("polygon"),
	}
}

// IsConfigured reports whether at least one provider key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" || c.polygonKey != ""
}

type finnhubQuote struct {
	C  float64 `json:"c"`  // current price
	H  float64 `json:"h"`  // high
	L  float64 `json:"l"`  // low
	O  float64 `json:"o"`  // open
	PC float64 `json:"pc"` // previous close
	T  int64   `json:"t"`  // timestamp
}

type finnhubNews struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

type polygonSnapshot struct {
	Ticker struct {
		Day *struct {
			C float64 `json:"c"`
			V float64 `json:"v"`
		} `json:"day"`
		PrevDay *struct {
			C float64 `json:"c"`
			V float64 `json:"v"`
		} `json:"prevDay"`
	} `json:"ticker"`
}

type polygonNews struct {
	Results []struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		PublishedUTC string   `json:"published_utc"`
		ArticleURL   string   `json:"article_url"`
		ImageURL     string   `json:"image_url"`
		Tickers      []string `json:"tickers"`
		Publisher    struct {
			Name string `json:"name"`
		} `json:"publisher"`
	} `json:"results"`
}

// GetQuote fetches the current quote for a symbol. A nil quote with a nil
// error signals that no data is available this cycle.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if c.apiKey != "" {
		quote, err := c.getQuoteFromFinnhub(ctx, symbol)
		if err == nil {
			return quote, nil
		}
		if c.polygonKey == "" {
			return nil, err
		}
		log.Debug().Err(err).Str("symbol", symbol).Msg("finnhub quote failed, falling back to polygon")
	}
	if c.polygonKey != "" {
		return c.getQuoteFromPolygon(ctx, symbol)
	}
	return nil, fmt.Errorf("no market data provider configured")
}

func (c *Client) getQuoteFromFinnhub(ctx context.Context, symbol string) (*models.Quote, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s", c.baseURL, url.QueryEscape(symbol), c.apiKey)

	var q finnhubQuote
	if err := c.getJSON(ctx, c.finnhubBreaker, u, &q); err != nil {
		return nil, fmt.Errorf("finnhub quote: %w", err)
	}
	if q.C == 0 {
		return nil, nil // no data available
	}

	var changePct float64
	if q.PC > 0 {
		changePct = (q.C - q.PC) / q.PC * 100
	}
	return &models.Quote{
		CurrentPrice:  q.C,
		PreviousClose: q.PC,
		Volume:        0, // the quote endpoint does not carry volume
		ChangePct:     changePct,
	}, nil
}

func (c *Client) getQuoteFromPolygon(ctx context.Context, symbol string) (*models.Quote, error) {
	u := fmt.Sprintf("%s/v2/snapshot/locale/us/markets/stocks/tickers/%s?apiKey=%s",
		c.polygonBaseURL, url.PathEscape(symbol), c.polygonKey)

	var snap polygonSnapshot
	if err := c.getJSON(ctx, c.polygonBreaker, u, &snap); err != nil {
		return nil, fmt.Errorf("polygon snapshot: %w", err)
	}
	if snap.Ticker.Day == nil || snap.Ticker.PrevDay == nil {
		return nil, nil
	}

	var changePct float64
	if snap.Ticker.PrevDay.C > 0 {
		changePct = (snap.Ticker.Day.C - snap.Ticker.PrevDay.C) / snap.Ticker.PrevDay.C * 100
	}
	return &models.Quote{
		CurrentPrice:  snap.Ticker.Day.C,
		PreviousClose: snap.Ticker.PrevDay.C,
		Volume:        int64(snap.Ticker.Day.V),
		ChangePct:     changePct,
	}, nil
}

// GetCompanyProfile fetches company metadata for a symbol. Failures degrade
// to a profile named after the symbol itself.
func (c *Client) GetCompanyProfile(ctx context.Context, symbol string) *models.CompanyProfile {
	if c.apiKey != "" {
		u := fmt.Sprintf("%s/stock/profile2?symbol=%s&token=%s", c.baseURL, url.QueryEscape(symbol), c.apiKey)
		var profile struct {
			Name string `json:"name"`
		}
		if err := c.getJSON(ctx, c.finnhubBreaker, u, &profile); err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Msg("company profile fetch failed")
		} else if profile.Name != "" {
			return &models.CompanyProfile{Name: profile.Name}
		}
	}
	if c.polygonKey != "" {
		u := fmt.Sprintf("%s/v3/reference/tickers/%s?apiKey=%s", c.polygonBaseURL, url.PathEscape(symbol), c.polygonKey)
		var details struct {
			Results struct {
				Name string `json:"name"`
			} `json:"results"`
		}
		if err := c.getJSON(ctx, c.polygonBreaker, u, &details); err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Msg("ticker details fetch failed")
		} else if details.Results.Name != "" {
			return &models.CompanyProfile{Name: details.Results.Name}
		}
	}
	return &models.CompanyProfile{Name: symbol}
}

// GetNews fetches up to limit general-market news articles, preferring
// Polygon (ticker-tagged articles) and falling back to Finnhub.
func (c *Client) GetNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	if c.polygonKey != "" {
		articles, err := c.getNewsFromPolygon(ctx, limit)
		if err == nil && len(articles) > 0 {
			return articles, nil
		}
		if err != nil {
			log.Debug().Err(err).Msg("polygon news failed, falling back to finnhub")
		}
	}
	if c.apiKey != "" {
		return c.getNewsFromFinnhub(ctx, limit)
	}
	return nil, fmt.Errorf("no market data provider configured")
}

func (c *Client) getNewsFromFinnhub(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	u := fmt.Sprintf("%s/news?category=general&token=%s", c.baseURL, c.apiKey)

	var items []finnhubNews
	if err := c.getJSON(ctx, c.finnhubBreaker, u, &items); err != nil {
		return nil, fmt.Errorf("finnhub news: %w", err)
	}
	if len(items) > limit {
		items = items[:limit]
	}

	articles := make([]models.NewsArticle, 0, len(items))
	for _, item := range items {
		var tickers []string
		if item.Related != "" {
			tickers = []string{item.Related}
		}
		articles = append(articles, models.NewsArticle{
			Headline:    item.Headline,
			Summary:     item.Summary,
			Source:      item.Source,
			URL:         item.URL,
			PublishedAt: time.Unix(item.Datetime, 0),
			Tickers:     tickers,
			Category:    item.Category,
			Image:       item.Image,
		})
	}
	return articles, nil
}

func (c *Client) getNewsFromPolygon(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	u := fmt.Sprintf("%s/v2/reference/news?limit=%d&apiKey=%s", c.polygonBaseURL, limit, c.polygonKey)

	var resp polygonNews
	if err := c.getJSON(ctx, c.polygonBreaker, u, &resp); err != nil {
		return nil, fmt.Errorf("polygon news: %w", err)
	}

	articles := make([]models.NewsArticle, 0, len(resp.Results))
	for _, item := range resp.Results {
		publishedAt, err := time.Parse(time.RFC3339, item.PublishedUTC)
		if err != nil {
			publishedAt = time.Now()
		}
		articles = append(articles, models.NewsArticle{
			Headline:    item.Title,
			Summary:     item.Description,
			Source:      item.Publisher.Name,
			URL:         item.ArticleURL,
			PublishedAt: publishedAt,
			Tickers:     item.Tickers,
			Category:    "general",
			Image:       item.ImageURL,
		})
	}
	return articles, nil
}

// getJSON performs a rate-limited, breaker-guarded GET with linear-backoff
// retry and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, breaker *gobreaker.CircuitBreaker, urlStr string, out any) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		_, err := breaker.Execute(func() (any, error) {
			return nil, c.doGet(ctx, urlStr, out)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if err == gobreaker.ErrOpenState || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("request failed after retries: %w", lastErr)
}

func (c *Client) doGet(ctx context.Context, urlStr string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
