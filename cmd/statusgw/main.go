// Command statusgw serves the read-only HTTP projection of order state:
// the available-order pool and per-order status for polling clients.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"driverDeliveryWorkflow/internal/cache"
	"driverDeliveryWorkflow/internal/config"
	"driverDeliveryWorkflow/internal/db"
	"driverDeliveryWorkflow/internal/httpx"
	"driverDeliveryWorkflow/repository"
)

func main() {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	d, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("close db", zap.Error(err))
		}
	}()

	var views cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		views = cache.NewRedisCache(cfg.RedisAddr, "workflow")
	}

	h := &httpx.Handler{
		Orders: repository.NewOrderRepository(d),
		Views:  views,
		Log:    logger,
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           httpx.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("status gateway listening", zap.String("address", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
