package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/config"
	"github.com/mamadbah2/palmtrack/internal/repository/cache"
	"github.com/mamadbah2/palmtrack/internal/repository/mongodb"
	"github.com/mamadbah2/palmtrack/internal/repository/sheets"
	"github.com/mamadbah2/palmtrack/internal/scheduler"
	"github.com/mamadbah2/palmtrack/internal/server/handlers"
	"github.com/mamadbah2/palmtrack/internal/server/router"
	assistantsvc "github.com/mamadbah2/palmtrack/internal/service/assistant"
	authsvc "github.com/mamadbah2/palmtrack/internal/service/auth"
	dashboardsvc "github.com/mamadbah2/palmtrack/internal/service/dashboard"
	inventorysvc "github.com/mamadbah2/palmtrack/internal/service/inventory"
	neerasvc "github.com/mamadbah2/palmtrack/internal/service/neera"
	processingsvc "github.com/mamadbah2/palmtrack/internal/service/processing"
	"github.com/mamadbah2/palmtrack/pkg/clients/anthropic"
	"github.com/mamadbah2/palmtrack/pkg/logger"
	"github.com/mamadbah2/palmtrack/pkg/token"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(!cfg.Server.IsProduction()))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	mongoRepo, err := mongodb.NewMongoDBRepository(startCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := mongoRepo.EnsureIndexes(startCtx); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	// Optional collaborators stay nil when unconfigured or unreachable.
	var summaryCache dashboardsvc.Cache
	if cfg.Redis.Addr != "" {
		c, err := cache.NewSummaryCache(startCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			baseLogger.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			summaryCache = c
			defer func() { _ = c.Close() }()
			baseLogger.Info("summary cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
		}
	}

	var exporter inventorysvc.Exporter
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = sheets.NewInventoryExporter(sheetsRepo)
		baseLogger.Info("inventory sheet export enabled")
	}

	var aiClient anthropic.Client
	if cfg.AI.AnthropicKey != "" {
		aiClient = anthropic.NewClient(cfg.AI.AnthropicKey)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, dashboard assistant disabled")
	}

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authService := authsvc.NewService(mongoRepo, tokens, baseLogger.Named("svc.auth"))
	neeraService := neerasvc.NewService(mongoRepo, baseLogger.Named("svc.neera"))
	processingService := processingsvc.NewService(mongoRepo, mongoRepo, baseLogger.Named("svc.processing"))
	inventoryService := inventorysvc.NewService(mongoRepo, mongoRepo, exporter, baseLogger.Named("svc.inventory"))
	dashboardService := dashboardsvc.NewService(mongoRepo, mongoRepo, summaryCache, baseLogger.Named("svc.dashboard"))
	assistantService := assistantsvc.NewService(dashboardService, aiClient, baseLogger.Named("svc.assistant"))

	engine := router.New(router.Handlers{
		Neera:      handlers.NewNeeraHandler(neeraService, baseLogger.Named("handlers.neera")),
		Processing: handlers.NewProcessingHandler(processingService, baseLogger.Named("handlers.processing")),
		Inventory:  handlers.NewInventoryHandler(inventoryService, inventorysvc.NewBatchID, baseLogger.Named("handlers.inventory")),
		Dashboard:  handlers.NewDashboardHandler(dashboardService, assistantService, baseLogger.Named("handlers.dashboard")),
		Auth:       handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth")),
	}, authService, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Debug:          !cfg.Server.IsProduction(),
	}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, dashboardService, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
