package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankfeed/internal/config"
	"bankfeed/internal/database"
	"bankfeed/internal/gate"
	"bankfeed/internal/handlers"
	"bankfeed/internal/logger"
	"bankfeed/internal/middleware"
	"bankfeed/internal/services"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// .env is optional; real deployments configure via environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		gateStore gate.Store
		checker   handlers.HealthChecker
	)

	switch cfg.Gate.Backend {
	case config.GateBackendSQL:
		db, err := database.New(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get sql.DB")
		}
		runner := database.NewMigrationRunner(sqlDB, log)
		if err := runner.WaitForDatabase(); err != nil {
			log.Fatal().Err(err).Msg("database never became ready")
		}
		if err := runner.RunMigrations(); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		store := gate.NewSQLStore(db.DB, log)
		store.StartSweeper(ctx, cfg.Gate.SweepInterval)
		gateStore = store
		checker = db
	default:
		gateStore = gate.NewMemoryStore(cfg.Gate.SweepInterval)
	}

	metrics := services.NewPrometheusMetrics()

	var classifier services.ModelClassifierInterface
	if cfg.Classifier.Enabled {
		client, err := services.NewGeminiClient(ctx, cfg.Classifier.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create model client")
		}
		breaker := services.NewCircuitBreaker(services.DefaultCircuitBreakerConfig())
		classifier = services.NewModelClassifier(client, breaker, cfg.Classifier, log)
	} else {
		log.Info().Msg("external model classification disabled")
	}

	categorizer := services.NewCategorizationService(
		services.NewRuleEngine(),
		services.NewKeywordMatcher(),
		classifier,
		cfg.Pipeline,
		log,
		metrics,
	)
	ingestion := services.NewIngestionService(categorizer, log, metrics)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()

	e.Use(middleware.RequestID(log))
	e.Use(middleware.PanicRecovery())

	importHandler := handlers.NewImportHandler(ingestion, log)
	healthHandler := handlers.NewHealthCheckHandler(checker)

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	admission := middleware.Admission(middleware.AdmissionConfig{
		Store:  gateStore,
		Limit:  cfg.Gate.Limit,
		TTL:    cfg.Gate.TTL,
		Logger: log,
	})
	e.POST("/v1/imports", importHandler.Import, admission)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Environment).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
