// Package worker runs background consumers for the dashboard server.
package worker

import (
	"context"
	"time"

	"salesdash/internal/amqp"
	applog "salesdash/internal/log"
)

const maxReconnectWait = 30 * time.Second

// Invalidator drops cached sale records.
type Invalidator interface {
	Invalidate()
}

// Consumer delivers sales-changed notifications until its context ends.
type Consumer interface {
	ConsumeSalesChanged(ctx context.Context, handler func(context.Context, *amqp.SalesChangedMessage) error) error
	Close() error
}

// Dialer opens a fresh Consumer.
type Dialer func() (Consumer, error)

// InvalidationWorker clears the record cache whenever a seeder reports new
// sales.
type InvalidationWorker struct {
	cache   Invalidator
	logger  *applog.Logger
	backoff func(attempt int) time.Duration
}

func NewInvalidationWorker(cache Invalidator, logger *applog.Logger) *InvalidationWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &InvalidationWorker{
		cache:   cache,
		logger:  logger.WithComponent(applog.ComponentAMQP),
		backoff: reconnectBackoff,
	}
}

// HandleSalesChanged processes a single sales changed message from AMQP.
func (w *InvalidationWorker) HandleSalesChanged(ctx context.Context, msg *amqp.SalesChangedMessage) error {
	w.cache.Invalidate()
	w.logger.InfoContext(ctx, "Record cache invalidated",
		"message_id", msg.ID,
		"backend", msg.Backend,
		"inserted", msg.Inserted,
		"published_at", msg.Timestamp)
	return nil
}

// Run consumes until ctx ends, redialing after broker failures. Outages are
// logged and never returned, so the HTTP server keeps serving on TTL expiry.
func (w *InvalidationWorker) Run(ctx context.Context, dial Dialer) error {
	for attempt := 0; ; attempt++ {
		consumer, err := dial()
		if err == nil {
			attempt = 0
			err = consumer.ConsumeSalesChanged(ctx, w.HandleSalesChanged)
			_ = consumer.Close()
		}
		if ctx.Err() != nil {
			return nil
		}

		wait := w.backoff(attempt)
		w.logger.WarnContext(ctx, "Sales changed consumer stopped, reconnecting",
			"error", err,
			"attempt", attempt+1,
			"retry_in", wait.String())
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func reconnectBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxReconnectWait
	}
	wait := time.Duration(1<<attempt) * time.Second
	if wait > maxReconnectWait {
		return maxReconnectWait
	}
	return wait
}
