package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/surgestack/surgecast-engine/internal/api"
	"github.com/surgestack/surgecast-engine/internal/baseline"
	"github.com/surgestack/surgecast-engine/internal/cache"
	"github.com/surgestack/surgecast-engine/internal/config"
	"github.com/surgestack/surgecast-engine/internal/engine"
	"github.com/surgestack/surgecast-engine/internal/events"
	"github.com/surgestack/surgecast-engine/internal/metrics"
	"github.com/surgestack/surgecast-engine/internal/oracle"
	"github.com/surgestack/surgecast-engine/internal/scheduler"
	"github.com/surgestack/surgecast-engine/internal/services"
	"github.com/surgestack/surgecast-engine/internal/store"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	// Local development convenience; absence of .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting surgecast-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable, continuing without", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	registry, err := baseline.NewRegistry(cfg.Baselines.Path, logger)
	if err != nil {
		logger.Error("failed to load baselines", slog.Any("error", err))
		os.Exit(1)
	}

	calendar, err := events.NewCalendar(cfg.Events.Path, logger)
	if err != nil {
		logger.Error("failed to load event calendar", slog.Any("error", err))
		os.Exit(1)
	}

	costs, err := engine.LoadCostTable(cfg.Costs.Path, logger)
	if err != nil {
		logger.Error("failed to load cost table", slog.Any("error", err))
		os.Exit(1)
	}

	signalClient := oracle.NewSignalClient(
		cfg.Oracles.Signal.BaseURL,
		cfg.Oracles.Signal.SignalPath,
		cfg.Oracles.Signal.EventsPath,
		cfg.Oracles.Signal.APIKey,
		cfg.Oracles.Signal.Timeout,
		cfg.Oracles.Signal.RetryBackoff,
		logger,
	)
	var signalOracle oracle.SignalOracle = signalClient
	if cfg.Oracles.Signal.RateLimit > 0 {
		signalOracle = oracle.NewRateLimitedOracle(signalOracle, cfg.Oracles.Signal.RateLimit, cfg.Oracles.Signal.RateBurst)
	}
	signalOracle = oracle.NewCachedOracle(signalOracle, cacheProvider, cfg.Cache.SignalTTL, cfg.Cache.EventsTTL, logger)

	var llm engine.ForecastOracle
	var advisory engine.AdvisoryClient
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		advisory = oracle.NewAdvisoryGenerator(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, logger)
	}
	if cfg.Forecast.Mode == config.ForecastModeLLM {
		if cfg.LLM.APIKey == "" {
			logger.Warn("forecast.mode is llm but no API key configured, using rule engine")
		} else {
			llm = oracle.NewLLMForecaster(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, logger)
		}
	}

	archive := store.NewArchiveRepo(
		cfg.Archive.Endpoint,
		cfg.Archive.APIKey,
		cfg.Archive.Timeout,
		cacheProvider,
		cfg.Archive.ListTTL,
		logger,
	)

	stores := engine.Stores{
		Signals:         store.NewMemorySignalStore(),
		Predictions:     store.NewMemoryPredictionStore(),
		Recommendations: store.NewMemoryRecommendationStore(),
		Advisories:      store.NewMemoryAdvisoryStore(),
		Archive:         archive,
	}
	alerts := store.NewMemoryAlertStore()

	pipeline := engine.NewPipeline(
		logger,
		signalOracle,
		registry,
		calendar,
		engine.NewForecaster(logger),
		llm,
		engine.NewRecommender(costs, logger),
		engine.NewAlertEvaluator(alerts, cfg.Pipeline.AlertExpiry, logger),
		advisory,
		stores,
		cfg.Pipeline.HorizonDays,
		cfg.Pipeline.FreshnessWindow,
	)

	svc := services.NewPipelineService(logger, pipeline, registry, stores, alerts)
	server := api.NewServer(cfg.Server, api.NewHandlers(svc, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(logger, svc, cfg.Scheduler)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", slog.Any("error", err))
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("surgecast-engine stopped")
}
