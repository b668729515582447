package app

import (
	"context"
	"fmt"

	"github.com/AshapuriCRM/backend/internal/bootstrap"
	"github.com/AshapuriCRM/backend/internal/config"
	"github.com/AshapuriCRM/backend/internal/messaging/kafka"
	"github.com/AshapuriCRM/backend/internal/messaging/kafka/producer"
	"github.com/AshapuriCRM/backend/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays outbox events to Kafka until the process is signalled.
func RunWorker(cfg config.Config, audit bootstrap.AuditLogger) error {
	logger := zap.L().Named("app.worker")

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database.DSN(), cfg.ConnectRetries)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit.Log(ctx, bootstrap.AuditLog{
		Action:  bootstrap.ActionWorkerStart,
		Message: "Outbox worker is starting",
		Meta:    map[string]any{"poll_interval": cfg.OutboxPoll.String()},
	})

	go producer.ProcessOutboxEvents(
		ctx,
		kafka.NewOutboxRepository(sqlDB),
		kafkaWriter,
		logger,
		cfg.OutboxPoll,
	)

	sig := bootstrap.WaitForSignal()
	logger.Info("worker shutting down", zap.String("signal", sig.String()))
	audit.Log(context.Background(), bootstrap.AuditLog{
		Action:  bootstrap.ActionWorkerShutdown,
		Message: "Outbox worker is shutting down",
		Meta:    map[string]any{"signal": sig.String()},
	})
	cancel()

	return nil
}
