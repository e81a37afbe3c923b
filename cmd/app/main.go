package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gtickets/api"
	"gtickets/config"
	"gtickets/internal/backend"
	"gtickets/internal/bootstrap"
	"gtickets/internal/cache"
	"gtickets/internal/kafka"
	"gtickets/internal/logger"
	"gtickets/internal/metrics"
	"gtickets/internal/remote"
	"gtickets/internal/repository"
	"gtickets/internal/service/booking"
	"gtickets/internal/service/flights"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := repository.NewMongoClient(ctx, cfg.Mongo)
	if err != nil {
		zlog.Fatalw("connect mongo", "error", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.Mongo.Database)

	seatLedger := repository.NewSeatLedger(mongoClient, db, cfg.Airlines.Internal.Name, zlog)
	if cfg.Airlines.Internal.SeedData != "" {
		if err := seatLedger.Seed(ctx, cfg.Airlines.Internal.SeedData); err != nil {
			zlog.Fatalw("seed internal airline", "error", err)
		}
	}
	bookingLedger := repository.NewBookingLedger(db, zlog)

	m := metrics.New()
	policy := remote.Policy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: time.Duration(cfg.Retry.InitialDelayMs) * time.Millisecond,
		Multiplier:   cfg.Retry.Multiplier,
		MaxDelay:     time.Duration(cfg.Retry.MaxDelaySec) * time.Second,
	}
	client := remote.NewClient(policy, zlog, remote.WithRetryCounter(m.RemoteRetries))

	flightCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Cache.FlightsTTLSeconds)*time.Second)
	registry := backend.NewRegistry(
		backend.NewInternal(cfg.Airlines.Internal.Name, seatLedger, zlog),
		backend.NewExternal(client, flightCache, cfg.Airlines.APIKey, cfg.Airlines.Endpoints, zlog),
	)

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightService := flights.NewFlightService(registry, zlog)
	bookingService := booking.NewBookingService(
		registry,
		bookingLedger,
		producer,
		cfg.Kafka.BookingTopic,
		zlog,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithMetrics(m),
	)

	if err := bootstrap.Run(ctx, cfg, api.HeaderAuthenticator{}, flightService, bookingService); err != nil {
		zlog.Fatalw("server error", "error", err)
	}
}
