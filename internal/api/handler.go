// Package api exposes the dashboard-facing JSON HTTP surface. It is thin
// request/response plumbing over the store and the monitor; no domain logic
// lives here.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/models"
	"stockpulse/internal/monitor"
	"stockpulse/internal/storage"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// Handler bundles the dependencies shared by all routes.
type Handler struct {
	store   *storage.Store
	monitor *monitor.Monitor
	quotes  monitor.QuoteSource
}

// NewHandler creates the API handler. quotes may be nil; newly added
// symbols are then left without an initial quote.
func NewHandler(store *storage.Store, mon *monitor.Monitor, quotes monitor.QuoteSource) *Handler {
	return &Handler{store: store, monitor: mon, quotes: quotes}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListStocks returns the watchlist.
func (h *Handler) ListStocks(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stocks())
}

type addStockRequest struct {
	Symbol      string `json:"symbol" binding:"required"`
	CompanyName string `json:"companyName"`
}

// AddStock adds a symbol to the watchlist, seeded with an initial quote
// when a quote source is available.
func (h *Handler) AddStock(c *gin.Context) {
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stock := models.Stock{
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		CompanyName: req.CompanyName,
	}
	if h.quotes != nil {
		if quote, err := h.quotes.GetQuote(c.Request.Context(), stock.Symbol); err == nil && quote != nil {
			stock.CurrentPrice = quote.CurrentPrice
			stock.PreviousClose = quote.PreviousClose
			stock.Volume = quote.Volume
			stock.AvgVolume = quote.Volume
		}
	}

	added, err := h.store.AddStock(stock)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, added)
}

// RemoveStock deletes a symbol from the watchlist.
func (h *Handler) RemoveStock(c *gin.Context) {
	symbol := c.Param("symbol")
	if !h.store.RemoveStock(symbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "symbol not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBooms returns all boom events, active and expired.
func (h *Handler) ListBooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.BoomEvents())
}

// ListActiveBooms returns only the currently live boom events.
func (h *Handler) ListActiveBooms(c *gin.Context) {
	events := h.store.ActiveBoomEvents(timeNow())
	if events == nil {
		events = []models.BoomEvent{}
	}
	c.JSON(http.StatusOK, events)
}

// GetBoom returns one boom event by ID.
func (h *Handler) GetBoom(c *gin.Context) {
	event, ok := h.store.BoomEvent(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "boom event not found"})
		return
	}
	c.JSON(http.StatusOK, event)
}

// GetHistory returns a symbol's price history, most recent first.
func (h *Handler) GetHistory(c *gin.Context) {
	limit := parseLimit(c, 100)
	c.JSON(http.StatusOK, h.store.PriceHistory(c.Param("symbol"), limit))
}

// ListNews returns recent news articles.
func (h *Handler) ListNews(c *gin.Context) {
	limit := parseLimit(c, 50)
	articles := h.store.News(limit)
	if articles == nil {
		articles = []models.NewsArticle{}
	}
	c.JSON(http.StatusOK, articles)
}

// NewsByTicker returns recent news mentioning the ticker.
func (h *Handler) NewsByTicker(c *gin.Context) {
	limit := parseLimit(c, 20)
	articles := h.store.NewsByTicker(c.Param("ticker"), limit)
	if articles == nil {
		articles = []models.NewsArticle{}
	}
	c.JSON(http.StatusOK, articles)
}

// GetSettings returns the current alert settings.
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Settings())
}

// UpdateSettings applies a partial settings update.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch models.AlertSettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.store.UpdateSettings(patch)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetStatus reports the monitor state.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Status())
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}
