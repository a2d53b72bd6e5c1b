package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/betterbuy/backend/config"
	httpDelivery "github.com/betterbuy/backend/internal/delivery/http"
	"github.com/betterbuy/backend/internal/domain"
	"github.com/betterbuy/backend/internal/infrastructure/ai"
	"github.com/betterbuy/backend/internal/infrastructure/cache"
	"github.com/betterbuy/backend/internal/infrastructure/cart"
	"github.com/betterbuy/backend/internal/infrastructure/document"
	"github.com/betterbuy/backend/internal/infrastructure/exchangerate"
	"github.com/betterbuy/backend/internal/infrastructure/metrics"
	"github.com/betterbuy/backend/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Server.Environment, cfg.Log.Level)
	log.Info().
		Str("env", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Str("ai_provider", cfg.AI.Provider).
		Msg("starting betterbuy backend v1.0.0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Cache backend (rate table and cart)
	store, closeStore, err := newCache(cfg.Cache)
	if err != nil {
		log.Error().Err(err).Msg("cache initialization failed")
		os.Exit(1)
	}
	defer closeStore()

	// 4. Infrastructure
	recorder := metrics.New()

	rateClient := exchangerate.NewClient(cfg.Rates.BaseURL, exchangerate.ClientOptions{
		Timeout:           cfg.Rates.Timeout,
		RequestsPerSecond: cfg.Rates.RequestsPerSecond,
	})
	rates := usecase.NewRateCache(rateClient, store, recorder, usecase.RateCacheConfig{
		TTL:          cfg.Rates.TTL,
		FetchTimeout: cfg.Rates.Timeout,
		Fallback:     exchangerate.FallbackRates(),
	})

	model, err := ai.New(ctx, ai.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
		Timeout:  cfg.AI.Timeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("AI provider initialization failed - comparisons will use the deterministic table")
		model = ai.NewUnavailable()
	}
	defer model.Close()

	// 5. Usecases
	currencies := usecase.NewCurrencyResolver()
	extractor := usecase.NewExtractor(
		usecase.NewImageScorer(document.NewProber(), usecase.ImageScorerConfig{
			MinDimension: cfg.Extraction.MinImageDimension,
			ProbeTimeout: cfg.Extraction.ImageTimeout,
		}),
		currencies,
		usecase.NewPriceNormalizer(rates),
		recorder,
		usecase.ExtractorConfig{
			DescriptionMin: cfg.Extraction.DescriptionMin,
			DescriptionMax: cfg.Extraction.DescriptionMax,
		},
	)

	cartService := usecase.NewCartService(cart.NewStore(store), usecase.NewComparisonEngine(model, recorder))
	captureService := usecase.NewCaptureService(
		document.Parser{},
		document.NewFetcher(cfg.Extraction.FetchTimeout),
		extractor,
		usecase.CaptureCapabilities{Detector: model, Translator: model, Summarizer: model},
		cartService,
		recorder,
	)

	// Warm the rate table so the first capture does not wait on the network
	go func() {
		table := rates.Table(ctx)
		log.Info().Str("source", table.Source).Int("currencies", len(table.Rates)).Msg("exchange rates ready")
	}()

	// 6. HTTP server
	handler := httpDelivery.NewHandler(captureService, cartService, rates, currencies)
	router := httpDelivery.SetupRouter(cfg, handler, recorder)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// 7. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

// newCache builds the configured cache backend and its close function
func newCache(cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	if cfg.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("redis connected successfully")
		return redisCache, func() { redisCache.Close() }, nil
	}

	memoryCache := cache.NewMemoryCache()
	return memoryCache, func() { memoryCache.Close() }, nil
}

// setupLogger configures the global zerolog logger. An explicit level wins
// over the environment default.
func setupLogger(env, level string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			zerolog.SetGlobalLevel(parsed)
		}
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
