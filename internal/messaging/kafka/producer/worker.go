package producer

import (
	"context"
	"time"

	"github.com/AshapuriCRM/backend/internal/messaging/kafka"

	"go.uber.org/zap"
)

const outboxBatchSize = 50

// ProcessOutboxEvents drains the outbox every pollInterval until ctx is
// cancelled. A full batch is followed immediately by another claim so a
// backlog of document requests does not wait for the next tick.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("outbox.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			for ctx.Err() == nil {
				n, err := processPendingEvents(ctx, repo, writer, log)
				if err != nil {
					log.Error("claim outbox events failed", zap.Error(err))
					break
				}
				if n < outboxBatchSize {
					break
				}
			}
		}
	}
}

// processPendingEvents publishes one claimed batch and reports its size.
func processPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
) (int, error) {
	events, err := repo.Claim(ctx, outboxBatchSize)
	if err != nil {
		return 0, err
	}

	var sent, failed int
	for _, event := range events {
		fields := []zap.Field{
			zap.String("outbox_id", event.ID),
			zap.String("request_id", event.RequestID),
			zap.String("aggregate_id", event.AggregateID),
			zap.String("event_type", event.EventType),
		}

		if err := publishEvent(ctx, writer, event); err != nil {
			failed++
			logger.Warn("publish outbox event failed",
				append(fields, zap.Int("retry_count", event.RetryCount), zap.Error(err))...)
			if markErr := repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				logger.Error("mark outbox event failed", append(fields, zap.Error(markErr))...)
			}
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			logger.Error("mark outbox event sent", append(fields, zap.Error(err))...)
			continue
		}
		sent++
	}

	if len(events) > 0 {
		logger.Info("outbox batch processed",
			zap.Int("claimed", len(events)),
			zap.Int("sent", sent),
			zap.Int("failed", failed),
		)
	}

	return len(events), nil
}
