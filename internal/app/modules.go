package app

import (
	"database/sql"
	"strings"

	"github.com/AshapuriCRM/backend/internal/company"
	"github.com/AshapuriCRM/backend/internal/config"
	"github.com/AshapuriCRM/backend/internal/invoice"
	"github.com/AshapuriCRM/backend/internal/messaging/kafka"
	"github.com/AshapuriCRM/backend/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newInvoiceService builds the invoice service shared by the API and the
// document consumer. outbox may be nil.
func newInvoiceService(
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	outbox kafka.OutboxRepository,
	logger *zap.Logger,
) (invoice.Service, error) {
	docs, err := NewDocumentService(cfg.Document, logger)
	if err != nil {
		return nil, err
	}

	return invoice.NewService(
		db,
		invoice.NewRepository(gormDB),
		company.NewRepository(gormDB),
		counter.NewRepository(gormDB),
		outbox,
		docs,
		rdb,
		invoice.Options{
			Defaults: cfg.DefaultRates,
			Issuer:   issuerParty(cfg.Issuer),
			CacheTTL: cfg.CacheTTL,
		},
		logger,
	), nil
}

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	invoiceService, err := newInvoiceService(cfg, db, gormDB, rdb, kafka.NewOutboxRepository(db), logger)
	if err != nil {
		return err
	}

	var invoiceHandler *invoice.Handler
	if rdb != nil {
		invoiceHandler = invoice.NewHandlerWithRedis(invoiceService, rdb)
	} else {
		invoiceHandler = invoice.NewHandler(invoiceService)
	}

	// local documents are served by the API itself
	if cfg.Document.Storage == config.StorageLocal && strings.HasPrefix(cfg.Document.PublicBaseURL, "/") {
		router.Static(cfg.Document.PublicBaseURL, cfg.Document.StorageDir)
	}

	api := router.Group("/api/v1")
	{
		if rdb != nil {
			invoice.RegisterRoutes(api, invoiceHandler, rdb)
		} else {
			invoice.RegisterRoutes(api, invoiceHandler)
		}
	}

	return nil
}
