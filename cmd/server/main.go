package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/engagement-engine/internal/app"
	"github.com/oggyb/engagement-engine/internal/cache"
	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/events"
	"github.com/oggyb/engagement-engine/internal/job"
	"github.com/oggyb/engagement-engine/internal/logger"
	"github.com/oggyb/engagement-engine/internal/server"
	"github.com/oggyb/engagement-engine/internal/service/matching"
	"github.com/oggyb/engagement-engine/internal/service/staking"
	"github.com/oggyb/engagement-engine/internal/service/subscription"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := run(cfg); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return err
	}
	defer redisCache.Close()

	publisher, err := events.NewPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	appCtx, err := app.New(cfg, database, redisCache, publisher, domain.SystemClock{}, log)
	if err != nil {
		return err
	}

	if cfg.App.ENV == "development" && cfg.DB.Driver == "sqlite" {
		if _, err := db.SeedTestData(database, appCtx.Clock.Now(), log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	grpcServer := server.NewGRPCServer(appCtx.Tokens, log,
		matching.NewRegistrar(appCtx),
		subscription.NewRegistrar(appCtx),
		staking.NewRegistrar(appCtx),
	)

	admin := server.NewAdminRouter(map[string]server.Pinger{
		"db": func(ctx context.Context) error {
			sqlDB, err := database.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": redisCache.Ping,
	})

	cron := job.NewManager(log)
	if err := cron.Register(cfg.Renewal.Schedule, job.NewRenewalJob(appCtx.Entitlements, cfg.Renewal.Window, log)); err != nil {
		return err
	}

	// message.sent events pay message rewards; without brokers there are none
	var consumer sarama.ConsumerGroup
	if len(cfg.Kafka.Brokers) > 0 {
		if consumer, err = events.NewConsumerGroup(cfg); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.StartGRPCServer(ctx, cfg, grpcServer) })
	g.Go(func() error { return server.ServeAdmin(ctx, cfg.Admin.Addr, admin, log) })
	g.Go(func() error { return cron.Run(ctx) })

	if consumer != nil {
		handler := events.NewMessageRewardHandler(appCtx.Rewards, log)
		g.Go(func() error { return events.Consume(ctx, consumer, cfg.Kafka.MessageTopic, handler, log) })
	}

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}
