// Package worker runs background consumers for the web server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"finboard/internal/amqp"
)

// Consumer delivers ledger change notifications; *amqp.Client implements it.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// Invalidator drops cached data for a changed ledger.
type Invalidator interface {
	HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// InvalidationWorker keeps the web server caches in step with imports made
// by other processes.
type InvalidationWorker struct {
	consumer    Consumer
	invalidator Invalidator
	logger      *slog.Logger
	processed   atomic.Int64
	failed      atomic.Int64
}

func NewInvalidationWorker(consumer Consumer, invalidator Invalidator, logger *slog.Logger) *InvalidationWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvalidationWorker{consumer: consumer, invalidator: invalidator, logger: logger}
}

// Run consumes until ctx is cancelled. Cancellation is not an error.
func (w *InvalidationWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting cache invalidation worker")
	err := w.consumer.ConsumeLedgerChanged(ctx, w.handle)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		w.logger.InfoContext(ctx, "Cache invalidation worker stopped",
			"processed", w.processed.Load(), "failed", w.failed.Load())
		return nil
	}
	return fmt.Errorf("consume ledger changes: %w", err)
}

func (w *InvalidationWorker) handle(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if err := w.invalidator.HandleLedgerChanged(ctx, msg); err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Failed to apply ledger change",
			"account_id", msg.AccountID, "revision", msg.Revision, "error", err)
		return err
	}
	w.processed.Add(1)
	return nil
}

// Processed returns how many notifications were applied.
func (w *InvalidationWorker) Processed() int64 {
	return w.processed.Load()
}
