package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/avelar/storefront/pkg/config"
	"github.com/avelar/storefront/pkg/idempotency"
	"github.com/avelar/storefront/pkg/logging"
	"github.com/avelar/storefront/pkg/shutdown"
	"github.com/avelar/storefront/pkg/tracing"

	analyticsapp "github.com/avelar/storefront/internal/analytics/application"
	analyticskafka "github.com/avelar/storefront/internal/analytics/infrastructure/kafka"
	analyticspg "github.com/avelar/storefront/internal/analytics/infrastructure/postgres"
)

func main() {
	log := logging.New("analytics-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg, err := config.LoadAnalytics()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "analytics-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, 10*time.Minute)

	svc := analyticsapp.NewService(analyticspg.NewRepository(log, pool))
	consumer := analyticskafka.NewConsumer(log, []string{cfg.KafkaAddr}, cfg.ReceiptTopic, cfg.ConsumerGroup, svc, idem)

	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("analytics-service shutdown")
}
