package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"stockpulse/internal/api"
	"stockpulse/internal/config"
	"stockpulse/internal/finnhub"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/monitor"
	"stockpulse/internal/news"
	"stockpulse/internal/storage"
	"stockpulse/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log.Info().Str("path", *configPath).Msg("configuration loaded")

	store := storage.New(cfg.AlertSettings())
	metricsRegistry := metrics.New()

	marketData := finnhub.NewClient(finnhub.Config{
		BaseURL:        cfg.Finnhub.BaseURL,
		APIKey:         cfg.Finnhub.APIKey,
		PolygonAPIKey:  os.Getenv("POLYGON_API_KEY"),
		Timeout:        cfg.Finnhub.Timeout,
		MaxRetries:     cfg.Finnhub.MaxRetries,
		RetryDelayBase: cfg.Finnhub.RetryDelayBase,
		RequestsPerSec: cfg.Finnhub.RequestsPerSec,
	})
	if !marketData.IsConfigured() {
		log.Warn().Msg("no market data API key configured, quotes will be unavailable")
	}

	var notifier monitor.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Telegram client")
		}
		notifier = telegramClient
		log.Info().Msg("Telegram notifications enabled")
	} else {
		log.Debug().Msg("Telegram notifications disabled")
	}

	mon := monitor.New(store, marketData, notifier, metricsRegistry, monitor.Config{
		SymbolDelay: cfg.Monitor.SymbolDelay,
	})

	var fetcher *news.Fetcher
	if cfg.News.Enabled {
		fetcher = news.NewFetcher(store, marketData, metricsRegistry, news.Config{
			FetchLimit:  cfg.News.FetchLimit,
			SymbolDelay: 100 * time.Millisecond,
		})
	}

	handler := api.NewHandler(store, mon, marketData)
	router := api.NewRouter(handler, metricsRegistry.Handler())
	server := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	mon.Start()
	if fetcher != nil {
		fetcher.Start()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutdown signal received, cleaning up")
	mon.Stop()
	if fetcher != nil {
		fetcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("service stopped")
}
