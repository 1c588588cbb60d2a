package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/amqp"
	"salesdash/internal/cache"
	"salesdash/internal/cli"
	apphttp "salesdash/internal/http"
	applog "salesdash/internal/log"
	"salesdash/internal/metrics"
	"salesdash/internal/report"
	"salesdash/internal/worker"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	store := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err, "backend", cfg.DataBackend)
		}
	}()

	m := metrics.New()

	records := cache.NewRecordSource(store.Source, cfg.RecordCacheTTL, m)
	cacheManager := cache.NewManager()
	cacheManager.Register(records.Cleaner())
	cacheManager.StartCleanup(cacheCleanupInterval)
	defer cacheManager.Stop()

	svc := report.NewService(records, report.NewCatalog(),
		report.WithChartSize(cfg.ChartWidth, cfg.ChartHeight),
		report.WithMetrics(m),
	)

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithLogger(logger.WithComponent(applog.ComponentHTTP)),
		apphttp.WithMetrics(m),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithReadinessCheck(records),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting salesdash server", applog.FieldOperation, applog.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown, "timeout", shutdownTimeout)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if cfg.AMQPEnabled() {
		invalidations := worker.NewInvalidationWorker(records, logger)
		g.Go(func() error {
			return invalidations.Run(gctx, func() (worker.Consumer, error) {
				client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
				if err != nil {
					return nil, err
				}
				return client, nil
			})
		})
	} else {
		logger.Info("AMQP disabled, record cache relies on TTL only", "ttl", cfg.RecordCacheTTL)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
