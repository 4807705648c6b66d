package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"statsnbet/internal/cache"
	"statsnbet/internal/config"
	cronrunner "statsnbet/internal/cron"
	"statsnbet/internal/db"
	"statsnbet/internal/handler"
	"statsnbet/internal/logger"
	"statsnbet/internal/middleware"
	"statsnbet/internal/pipeline"
	gormrepository "statsnbet/internal/repository/gorm"
)

func main() {
	cfgPath := os.Getenv("SB_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("SB_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	engine := &pipeline.Engine{
		Repo:   store,
		Logger: logger,
		Config: cfg.Pipeline,
	}

	pageCache := cache.New(cfg.Redis, logger)
	if pageCache != nil {
		defer pageCache.Close()
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequireBearer())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(router)
	dashboardHandler := &handler.DashboardHandler{Engine: engine, Logger: logger}
	dashboardHandler.Register(router)
	historyHandler := &handler.HistoryHandler{Engine: engine, Cache: pageCache, Logger: logger}
	historyHandler.Register(router)
	summariesHandler := &handler.SummariesHandler{Repo: store}
	summariesHandler.Register(router)
	settingsHandler := &handler.SettingsHandler{Repo: store}
	settingsHandler.Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		maxAge := cfg.Pipeline.CacheMaxAge
		if maxAge <= 0 {
			maxAge = 7 * 24 * time.Hour
		}
		_, err := cronRunner.Add(cfg.Cron.CachePurge, func(ctx context.Context) {
			n, err := store.DeleteStaleCaches(ctx, time.Now().UTC().Add(-maxAge))
			if err != nil {
				logger.Warn("stale cache purge failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("purged stale filtered caches", zap.Int64("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register cache purge failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
