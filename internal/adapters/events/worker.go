package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

// ConsumerWorker pulls canonical envelopes and hands them to the service.
// Handler errors are logged and the message is dropped after the service's
// own DLQ path has had its chance; the loop itself never dies on bad input.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer ports.EventConsumer
	service  *application.Service
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer ports.EventConsumer, service *application.Service, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{logger: logger, consumer: consumer, service: service, interval: interval}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	for {
		envelope, err := w.consumer.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := w.service.HandleCanonicalEvent(ctx, *envelope); err != nil {
			w.logger.WarnContext(ctx, "event handling failed",
				"event_id", envelope.EventID,
				"event_type", envelope.EventType,
				"error", err,
			)
		}
	}
}

// OutboxWorker periodically drains the transactional outbox.
type OutboxWorker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
}

func NewOutboxWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxWorker{logger: logger, service: service, interval: interval}
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.service.FlushOutbox(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "outbox flush failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "flush",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RecheckWorker re-evaluates transactions whose settlement wait has elapsed.
type RecheckWorker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
}

func NewRecheckWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *RecheckWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &RecheckWorker{logger: logger, service: service, interval: interval}
}

func (w *RecheckWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		processed, err := w.service.ProcessDueRechecks(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "recheck sweep failed",
				"module", "events.recheck_worker",
				"layer", "adapter",
				"operation", "process_due",
				"outcome", "failure",
				"error", err,
			)
		} else if processed > 0 {
			w.logger.InfoContext(ctx, "rechecks processed", "count", processed)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
