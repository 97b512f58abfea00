package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laundry/internal/adapters/cache"
	"laundry/internal/adapters/httpclient"
	"laundry/internal/adapters/postgres"
	"laundry/internal/api"
	"laundry/internal/api/handler"
	"laundry/internal/config"
	"laundry/internal/order"
	"laundry/internal/platform/db"
	httpserver "laundry/internal/platform/http"
	"laundry/internal/platform/metrics"
	"laundry/internal/pricing"
	"laundry/internal/rate"

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
	setupLogger(appCfg.Logging)
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect, migrations)
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Exchange rates
	pivot := appCfg.Pricing.PivotCurrency
	supported := appCfg.Pricing.SupportedCurrencies
	rateStore := rate.NewStore(pivot)
	converter := rate.NewConverter(rateStore)
	currencies := rate.NewValidator(supported)

	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	feedClient := httpclient.NewFeedClient(&http.Client{Timeout: httpTimeout}, appCfg.RateFeed.URL)
	parser, err := rate.NewParser(appCfg.RateFeed.Format, pivot)
	if err != nil {
		return err
	}
	refresher := rate.NewRefresher(
		feedClient, parser, rateStore, supported,
		time.Duration(appCfg.RateFeed.TimeoutSeconds)*time.Second, appMetrics,
	)
	scheduler, err := rate.NewScheduler(refresher, appCfg.RateFeed.DailyAt)
	if err != nil {
		return err
	}
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.WithField("daily_at", appCfg.RateFeed.DailyAt).Info("✅ Scheduler activation successful")

	priceCache, err := cache.NewPriceCache(appCfg.Cache.MaxItems, time.Duration(appCfg.Cache.TTLSeconds)*time.Second)
	if err != nil {
		return err
	}
	defer priceCache.Close()

	// Services
	uow := postgres.NewUnitOfWork(pool)
	synchronizer := pricing.NewSynchronizer(uow, converter, currencies, priceCache, appMetrics)
	engine := pricing.NewEngine()
	orderService := order.NewService(uow, engine, currencies, appMetrics)
	historyService := order.NewHistoryService(uow)

	// Handlers and router
	h := handler.NewHandler(handler.Deps{
		Rates:      rateStore,
		Converter:  converter,
		Refresher:  refresher,
		Currencies: currencies,
		Prices:     synchronizer,
		Orders:     orderService,
		History:    historyService,
	})
	router := api.NewRouter(h, appMetrics, registry)

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

func setupLogger(cfg config.Logging) {
	logrus.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if parsedLvl, parseErr := logrus.ParseLevel(cfg.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
}
