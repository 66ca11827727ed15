package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/config"
	"github.com/Dosada05/bracket-engine/db"
	"github.com/Dosada05/bracket-engine/handlers"
	"github.com/Dosada05/bracket-engine/metrics"
	"github.com/Dosada05/bracket-engine/repositories"
	api "github.com/Dosada05/bracket-engine/routes"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/Dosada05/bracket-engine/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageDriver),
		slog.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var (
		store  *repositories.Store
		dbConn *sql.DB
		pinger handlers.Pinger
	)
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		dbConn, err = db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
		if err := db.Migrate(ctx, dbConn); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		store = repositories.NewPostgresStore(dbConn, logger)
		pinger = dbConn
		logger.Info("database connection established")
	default:
		store = repositories.NewMemoryBackedStore(repositories.NewMemoryStore())
		logger.Warn("using in-memory storage; state is lost on exit")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusMetrics(registry)

	var pairer brackets.SwissPairer = brackets.BucketPairer{}
	if cfg.SwissPairer == config.SwissPairerAvoidRematches {
		pairer = brackets.RematchAvoidingPairer{}
	}
	opts := services.EngineOptions{
		Pairer:  pairer,
		Logger:  logger,
		Metrics: recorder,
		Tracer:  otel.Tracer("github.com/Dosada05/bracket-engine/services"),
	}

	if cfg.AnnualRankingFile != "" {
		ranking, err := config.LoadAnnualRanking(cfg.AnnualRankingFile)
		if err != nil {
			logger.Error("failed to load annual ranking", slog.Any("error", err), slog.String("file", cfg.AnnualRankingFile))
			os.Exit(1)
		}
		opts.Ranking = ranking
		logger.Info("annual ranking loaded", slog.Int("seasons", len(ranking.Seasons)))
	}

	if cfg.R2.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		opts.Archiver = storage.NewPlacementArchive(uploader, logger)
		logger.Info("placement archive enabled", slog.String("bucket", cfg.R2.BucketName))
	}

	hub := brackets.NewHub(logger)
	defer hub.Close()
	opts.Hub = hub
	events := hub.Subscribe(brackets.AllRooms, 64)
	go func() {
		for ev := range events.Send {
			level := slog.LevelInfo
			if ev.Type == brackets.EventSlotConflict {
				level = slog.LevelWarn
			}
			logger.Log(context.Background(), level, "bracket event",
				slog.String("type", ev.Type),
				slog.String("room", ev.RoomID),
				slog.String("event_id", ev.ID),
			)
		}
	}()

	engine := services.NewEngine(store, opts)
	reconciler := services.NewReconciler(engine, cfg.ReconcileConcurrency, logger)
	simulation := services.NewSimulationService(engine, services.NewRandomSimulator(uint64(time.Now().UnixNano())), cfg.SimulationRate, logger)
	logger.Info("engine initialized")

	// Periodic reconcile
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.ReconcileInterval),
		gocron.NewTask(func() {
			summary, err := reconciler.RunOnce(ctx)
			if err != nil {
				logger.Error("scheduled reconcile failed", slog.Any("error", err))
				return
			}
			logger.Info("scheduled reconcile finished",
				slog.String("run_id", summary.RunID),
				slog.Int("tournaments", summary.Tournaments),
				slog.Int("slots_filled", summary.SlotsFilled),
				slog.Int("conflicts", summary.Conflicts),
			)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		logger.Error("failed to schedule reconcile job", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("reconcile scheduler started", slog.Duration("interval", cfg.ReconcileInterval))

	router := chi.NewRouter()
	api.SetupRoutes(router,
		api.Options{
			Logger:         logger,
			Metrics:        recorder,
			Gatherer:       registry,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			OpsSecret:      []byte(cfg.OpsJWTSecret),
		},
		handlers.NewHealthHandler(pinger, cfg.StorageDriver, logger),
		handlers.NewTournamentHandler(services.NewQueryService(store), engine.Tournaments(), engine, logger),
		handlers.NewOpsHandler(engine, reconciler, simulation, logger),
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}

	if err := scheduler.Shutdown(); err != nil {
		logger.Error("scheduler shutdown failed", slog.Any("error", err))
	}
	logger.Info("application exited")
}
