package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	applog "salesdash/internal/log"
	"salesdash/internal/sales"
)

const publishTimeout = 10 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentSeed)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	store := cli.InitBackend(ctx, logger, cfg)
	defer store.Close()

	if store.Seeder == nil {
		logger.Error("Backend does not support seeding", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	products := sales.SampleProducts()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	records := sales.GenerateSales(rng, products, cfg.SeedSalesCount, time.Now())

	start := time.Now()
	seeded, err := store.Seeder.Seed(ctx, products, records)
	if err != nil {
		logger.Error("Seeding failed", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !seeded {
		logger.Info("Store already has products, nothing seeded", "backend", cfg.DataBackend)
		return
	}

	fields := applog.NewFields().
		WithOperation(applog.OpSeed).
		WithDuration(time.Since(start))
	fields[applog.FieldRecordCount] = len(records)
	logger.Info("Seeded sample data", append(fields.ToSlice(), "products", len(products), "backend", cfg.DataBackend)...)

	if !cfg.AMQPEnabled() {
		return
	}
	notifySeeded(ctx, logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.DataBackend, len(records))
}

// notifySeeded tells running servers to drop their record caches. Failure
// only costs freshness, so it is logged and not fatal.
func notifySeeded(ctx context.Context, logger *applog.Logger, url, exchange, queue, backend string, inserted int) {
	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		logger.Warn("AMQP unavailable, servers will refresh after cache TTL", "error", err)
		return
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := client.PublishSalesChanged(ctx, backend, inserted); err != nil {
		logger.Warn("Failed to publish sales changed message", "error", err)
	}
}
