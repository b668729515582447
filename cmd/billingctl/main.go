package main

import (
	"fmt"
	"os"

	"github.com/AshapuriCRM/backend/internal/cli"
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

	if err := cli.NewRootCommand(cfg.DefaultRates).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
