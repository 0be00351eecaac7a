package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eurorates/internal/adapters/cache"
	"eurorates/internal/adapters/httpclient"
	"eurorates/internal/adapters/postgres"
	"eurorates/internal/api"
	"eurorates/internal/config"
	"eurorates/internal/currency"
	"eurorates/internal/metrics"
	"eurorates/internal/platform/db"
	httpserver "eurorates/internal/platform/http"
	"eurorates/internal/rate"
	"eurorates/internal/rate/handler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// Run wires the application components, starts HTTP server and scheduler
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(appCfg.Logging.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect, migrations)
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// DB pool
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return err
	}
	defer pool.Close()
	logrus.Info("✅ Postgres connection successful")

	if err = db.Migrate(startupCtx, pool); err != nil {
		logrus.WithError(err).Error("Failed to apply migrations")
		return err
	}
	logrus.Info("✅ Migrations applied")

	location, err := time.LoadLocation(appCfg.Sync.Timezone)
	if err != nil {
		return fmt.Errorf("invalid sync timezone %q: %w", appCfg.Sync.Timezone, err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(registry)

	// Base HTTP client (configurable timeout)
	baseHTTPClient := &http.Client{Timeout: time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second}

	// External clients
	bundesbankClient := httpclient.NewBundesbankClient(
		baseHTTPClient,
		strings.TrimSuffix(appCfg.Bundesbank.BaseURL, "/"),
		httpclient.Series{
			Prefix:    appCfg.Bundesbank.SeriesPrefix,
			Frequency: appCfg.Bundesbank.Frequency,
			Base:      appCfg.Bundesbank.BaseCurrency,
			Suffix:    appCfg.Bundesbank.SeriesSuffix,
		},
	)

	// Repositories
	rateRepo := postgres.NewRateRepository(pool, appCfg.Sync.BatchSize)
	currencyRepo := postgres.NewCurrencyRepository(pool)

	// Caches
	registryCache, err := cache.NewRistrettoCache(appCfg.Cache.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to create registry cache: %w", err)
	}
	defer registryCache.Close()
	queryCache, err := cache.NewRistrettoCache(appCfg.Cache.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to create query cache: %w", err)
	}
	defer queryCache.Close()

	// Services
	currencyRegistry := currency.NewRegistry(bundesbankClient, currencyRepo, registryCache, appMetrics, appCfg.Bundesbank.BaseCurrency)
	syncEngine := rate.NewSyncEngine(
		currencyRegistry,
		bundesbankClient,
		rateRepo,
		appMetrics,
		appCfg.Sync.Workers,
		time.Duration(appCfg.Sync.RequestTimeoutSeconds)*time.Second,
	)
	rateService := rate.NewService(currencyRegistry, rateRepo, queryCache, appMetrics, appCfg.Bundesbank.BaseCurrency)

	scheduler := rate.NewScheduler(currencyRegistry, syncEngine, rateRepo, rateService, rate.ScheduleConfig{
		RatesCron:      appCfg.Sync.RatesCron,
		CurrenciesCron: appCfg.Sync.CurrenciesCron,
		Location:       location,
	})
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	// Start scheduler tied to root context
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Info("✅ Scheduler activation successful")

	// Handlers and router
	ipLimiter, err := api.NewIPLimiter(appCfg.RateLimit.Rate)
	if err != nil {
		return fmt.Errorf("invalid rate limit %q: %w", appCfg.RateLimit.Rate, err)
	}
	rateHandler := handler.NewRateHandler(rateService, currencyRegistry)
	router := api.NewRouter(rateHandler, ipLimiter, registry)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}
