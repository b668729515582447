package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/AshapuriCRM/backend/internal/events"
	"github.com/AshapuriCRM/backend/internal/invoice"
	invoiceerrors "github.com/AshapuriCRM/backend/internal/invoice/errors"
	"github.com/AshapuriCRM/backend/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumers need.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type DocumentGenerator interface {
	GenerateDocument(ctx context.Context, id string) (invoice.DocumentResponse, error)
}

// ConsumeInvoiceDocumentRequested renders the document of every invoice
// announced on the topic. Messages for invoices that no longer exist are
// committed and skipped; other failures are left uncommitted.
func ConsumeInvoiceDocumentRequested(
	ctx context.Context,
	reader MessageReader,
	generator DocumentGenerator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.invoice_document")
	log.Info("invoice document consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("invoice document consumer stopped")
				return
			}
			log.Error("fetch invoice document message failed", zap.Error(err))
			continue
		}

		handleInvoiceDocumentRequested(ctx, reader, generator, msg, log)
	}
}

func handleInvoiceDocumentRequested(
	ctx context.Context,
	reader MessageReader,
	generator DocumentGenerator,
	msg kafkago.Message,
	log *zap.Logger,
) {
	var event events.InvoiceDocumentRequestedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil || event.InvoiceID == "" {
		log.Error("decode invoice document event failed",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		_ = reader.CommitMessages(ctx, msg)
		return
	}

	reqCtx := ctx
	if event.RequestID != "" {
		reqCtx = contextutil.WithRequestID(ctx, event.RequestID)
	}

	doc, err := generator.GenerateDocument(reqCtx, event.InvoiceID)
	if err != nil {
		if errors.Is(err, invoiceerrors.ErrInvoiceNotFound) {
			log.Warn("invoice gone before document generation, skipping",
				zap.String("invoice_id", event.InvoiceID),
				zap.String("request_id", event.RequestID),
			)
			_ = reader.CommitMessages(ctx, msg)
			return
		}

		log.Error("generate invoice document failed",
			zap.String("invoice_id", event.InvoiceID),
			zap.String("request_id", event.RequestID),
			zap.Error(err),
		)
		return
	}

	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit invoice document message failed", zap.Error(err))
		return
	}

	log.Info("invoice document generated",
		zap.String("invoice_id", event.InvoiceID),
		zap.String("invoice_number", event.InvoiceNumber),
		zap.String("request_id", event.RequestID),
		zap.String("url", doc.URL),
	)
}
