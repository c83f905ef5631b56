//go:build grpcserver

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"driverDeliveryWorkflow/internal/cache"
	"driverDeliveryWorkflow/internal/config"
	"driverDeliveryWorkflow/internal/db"
	"driverDeliveryWorkflow/internal/events"
	grpcserver "driverDeliveryWorkflow/internal/grpc"
	"driverDeliveryWorkflow/repository"
	"driverDeliveryWorkflow/workflow"
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
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	d, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("close db", zap.Error(err))
		}
	}()

	orders := repository.NewOrderRepository(d)
	drivers := repository.NewDriverRepository(d)
	operators := repository.NewOperatorRepository(d)
	confirmations := repository.NewConfirmationRepository(d)

	var views cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		views = cache.NewRedisCache(cfg.RedisAddr, "workflow")
		logger.Info("redis view cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Warn("close kafka writer", zap.Error(err))
			}
		}()
		publisher = kp
		logger.Info("kafka event publishing enabled",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	engine := workflow.NewEngine(orders, confirmations, publisher, views, cfg.PickupChecklist, logger)

	shutdown, err := grpcserver.StartGRPC(cfg, grpcserver.Deps{
		Engine:    engine,
		Orders:    orders,
		Drivers:   drivers,
		Operators: operators,
	})
	if err != nil {
		logger.Fatal("start grpc", zap.Error(err))
	}
	logger.Info("gRPC server listening", zap.String("address", cfg.GRPCAddress))

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
