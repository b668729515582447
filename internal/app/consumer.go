package app

import (
	"context"
	"fmt"

	"github.com/AshapuriCRM/backend/internal/bootstrap"
	"github.com/AshapuriCRM/backend/internal/config"
	"github.com/AshapuriCRM/backend/internal/events"
	"github.com/AshapuriCRM/backend/internal/messaging/kafka/consumer"
	"github.com/AshapuriCRM/backend/internal/shared/connection"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer renders invoice documents requested through Kafka until the
// process is signalled.
func RunConsumer(cfg config.Config, audit bootstrap.AuditLogger) error {
	logger := zap.L().Named("app.consumer")

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

	// redis is optional here; when present the detail cache is invalidated
	// after a document is attached
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	invoiceService, err := newInvoiceService(cfg, sqlDB, gormDB, rdb, nil, zap.L())
	if err != nil {
		return err
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.InvoiceDocumentRequestedTopic,
		GroupID:        cfg.ConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	audit.Log(ctx, bootstrap.AuditLog{
		Action:  bootstrap.ActionWorkerStart,
		Message: "Invoice document consumer is starting",
		Meta:    map[string]any{"topic": events.InvoiceDocumentRequestedTopic, "group": cfg.ConsumerGroup},
	})

	go consumer.ConsumeInvoiceDocumentRequested(ctx, reader, invoiceService, logger)

	sig := bootstrap.WaitForSignal()
	logger.Info("consumer shutting down", zap.String("signal", sig.String()))
	audit.Log(context.Background(), bootstrap.AuditLog{
		Action:  bootstrap.ActionWorkerShutdown,
		Message: "Invoice document consumer is shutting down",
		Meta:    map[string]any{"signal": sig.String()},
	})
	cancel()

	return nil
}
