package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/avelar/storefront/pkg/config"
	"github.com/avelar/storefront/pkg/logging"
	"github.com/avelar/storefront/pkg/outbox"
	"github.com/avelar/storefront/pkg/shutdown"
	"github.com/avelar/storefront/pkg/tracing"

	analyticsapp "github.com/avelar/storefront/internal/analytics/application"
	analyticspg "github.com/avelar/storefront/internal/analytics/infrastructure/postgres"
	cartapp "github.com/avelar/storefront/internal/cart/application"
	catalogpg "github.com/avelar/storefront/internal/catalog/infrastructure/postgres"
	checkoutapp "github.com/avelar/storefront/internal/checkout/application"
	checkoutkafka "github.com/avelar/storefront/internal/checkout/infrastructure/kafka"
	checkoutpg "github.com/avelar/storefront/internal/checkout/infrastructure/postgres"
	"github.com/avelar/storefront/internal/shell"
	verifapp "github.com/avelar/storefront/internal/verification/application"
	verifredis "github.com/avelar/storefront/internal/verification/infrastructure/redis"
)

func main() {
	log := logging.New("storefront-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg, err := config.LoadStorefront()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "storefront-service", cfg.OTLPEndpoint, log)
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

	// Kafka producer + outbox relay
	writer := checkoutkafka.NewWriter([]string{cfg.KafkaAddr})
	defer writer.Close()
	store := checkoutpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.ReceiptTopic)
	relay := outbox.NewRelay(log, store, dispatch, "storefront-service-relay")

	// Session-scoped state: one gate, one cart registry, one checkout
	// service, injected explicitly into the shell.
	catalog := catalogpg.NewRepository(log, pool)
	gate := verifapp.NewGate(verifredis.NewStore(rdb, cfg.SessionTTL), cfg.MinAge)
	carts := cartapp.NewRegistry()
	ledger := checkoutpg.NewLedger(log, pool)
	checkout := checkoutapp.NewService(log, carts, catalog, ledger)

	sales := analyticspg.NewRepository(log, pool)
	refresher := analyticsapp.NewRefresher(log, catalog, cfg.LowStockThreshold, cfg.StockRefresh)

	handler := shell.NewHandler(log, shell.DefaultPages(), gate, carts, checkout, catalog, refresher, sales)

	r := chi.NewRouter()
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		if err := refresher.Run(ctx); err != nil {
			log.Error("refresher stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("storefront-service shutdown complete")
}
