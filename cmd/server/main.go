package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planpilot-service/internal/infrastructure/cache"
	"planpilot-service/internal/infrastructure/config"
	"planpilot-service/internal/infrastructure/persistence"
	"planpilot-service/internal/interface/api"
	"planpilot-service/internal/interface/market"
	gormRepo "planpilot-service/internal/interface/repository"
	"planpilot-service/internal/usecase"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting PlanPilot Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up PostgreSQL connection
	log.Info("Connecting to PostgreSQL")
	gormDB, err := persistence.NewPostgresDB(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}
	if err := persistence.AutoMigrate(gormDB); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	// Set up MongoDB connection for diagnostics
	log.Info("Connecting to MongoDB")
	mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	mongoDB := persistence.GetDatabase(mongoClient, cfg.MongoDB)

	// Set up repositories
	planRepo := gormRepo.NewGormPlanRepository(gormDB)
	candidateRepo := gormRepo.NewGormCandidateRepository(gormDB)
	optionRepo := gormRepo.NewGormOptionRepository(gormDB)
	packageRepo := gormRepo.NewGormPackageRepository(gormDB)
	fxRepo := gormRepo.NewGormFxRateRepository(gormDB)
	airportRepo := gormRepo.NewGormAirportRepository(gormDB)
	diagRepo := gormRepo.NewMongoDiagnosticRepository(mongoDB)

	// Market data cache: Redis when configured, in-process otherwise
	var marketCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		defer redisCache.Close()
		marketCache = redisCache
	} else {
		log.Info("REDIS_ADDR not set, using in-process market cache")
		marketCache = cache.NewMemoryCache()
	}

	// Set up metrics
	appMetrics := metrics.NewMetrics("planpilot")

	// Set up market data clients
	aggregator := market.NewClient(cfg.MarketBaseURL, cfg.MarketToken, marketCache, appMetrics, log)
	amadeus := market.NewAmadeusClient(ctx, cfg.AmadeusBaseURL, cfg.AmadeusClientID, cfg.AmadeusClientSecret, log)

	// Set up services
	var fxProvider usecase.FxProvider
	if cfg.FxAPIKey != "" {
		fxProvider = usecase.NewHTTPFxProvider(cfg.FxAPIKey, cfg.FxAPIURL)
	} else {
		log.Info("FX_API_KEY not set, rates degrade to 1:1")
		fxProvider = usecase.FallbackFxProvider{}
	}
	fxService := usecase.NewFxService(fxRepo, fxProvider, log)

	expander := usecase.NewDestinationExpander(airportRepo, candidateRepo, log)
	estimator := usecase.NewCandidateEstimator(aggregator, amadeus, log)
	builder := usecase.NewPackageBuilder(fxService, log)
	links := usecase.NewSearchLinkBuilder(cfg.FlightLinkBase, cfg.HotelLinkBase, cfg.LinkMarker)

	orchestrator := usecase.NewOrchestrator(
		planRepo, candidateRepo, optionRepo, packageRepo, diagRepo, airportRepo,
		expander, estimator, fxService, builder, links,
		usecase.OrchestratorConfig{
			WorkerLimit:   cfg.WorkerLimit,
			JobTimeout:    cfg.JobTimeout,
			MaxCandidates: cfg.MaxCandidates,
			SortMode:      cfg.SortMode,
			MaxPackages:   cfg.MaxPackages,
			RefreshTopN:   cfg.RefreshTopN,
		},
		appMetrics, log,
	)
	planner := usecase.NewPlannerService(planRepo, packageRepo, log)
	providerHealth := usecase.NewProviderHealthService(diagRepo, log)

	// Schedule the out-of-band FX refresh
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.FxCronSpec, func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, time.Minute)
		defer refreshCancel()
		if _, err := fxService.RefreshRates(refreshCtx, cfg.FxBaseCurrency, []string{"EUR", "GBP", "JPY", "THB", "AED"}); err != nil {
			log.Error("Scheduled fx refresh failed", "error", err)
		}
	})
	if err != nil {
		log.Fatal("Invalid fx cron spec", "spec", cfg.FxCronSpec, "error", err)
	}
	scheduler.Start()

	// Set up HTTP server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})
	api.NewHandler(planner, orchestrator, providerHealth, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	cancel() // Cancel the context to stop all goroutines

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("PlanPilot Service stopped")
}
