package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"assetmanagement/internal/asset_mgmt/inventory"
	"assetmanagement/internal/platform/auth"
	"assetmanagement/internal/platform/config"
	"assetmanagement/internal/platform/db"
	"assetmanagement/internal/platform/logger"
	"assetmanagement/internal/scheduler"
)

const configFilePath = "config/config.yaml"

func main() {
	path := configFilePath
	if v := os.Getenv("AMS_CONFIG"); v != "" {
		path = v
	}
	cfg, err := config.Load(path, "")
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.New(cfg.Mode == config.ModeDev))
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	log.Info("starting", zap.String("mode", cfg.Mode), zap.String("version", cfg.Version))

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()
	log.Info("connected to database", zap.String("driver", cfg.DB.Driver), zap.String("name", cfg.DB.Name()))

	ctx := context.Background()
	if err := db.EnsureSchema(ctx, conn, cfg.DB.Driver); err != nil {
		log.Fatal("failed to ensure schema", zap.Error(err))
	}

	invSvc := inventory.NewService(conn, inventory.WithLogger(log.Named("svc.inventory")))
	authSvc := auth.NewService(conn, []byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL)

	sched := scheduler.New(cfg.Report.Cron, invSvc, log.Named("scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(logger.Gin(log), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == config.ModeDev {
		// dev front end runs on its own origin
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, authSvc)
	inventory.RegisterRoutes(api, invSvc, auth.RequireAuth(authSvc.Secret()), log.Named("http.inventory"))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
