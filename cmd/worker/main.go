package main

import (
	"github.com/AshapuriCRM/backend/internal/app"
	"github.com/AshapuriCRM/backend/internal/bootstrap"
	"github.com/AshapuriCRM/backend/internal/config"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config failed", zap.Error(err))
	}

	if err := app.RunWorker(cfg, bootstrap.NewStdoutAuditLogger(logger)); err != nil {
		logger.Fatal("run worker failed", zap.Error(err))
	}
}
