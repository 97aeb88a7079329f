package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/annif-client/internal/app"
	"github.com/samvad-hq/annif-client/internal/config"
	"github.com/samvad-hq/annif-client/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "indexer start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("indexer starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	indexer, err := app.NewIndexer(ctx, cfg, logger.Global{})
	if err != nil {
		logger.ErrorObj("failed to initialize indexer", "error", err.Error())
		return err
	}

	if err := indexer.Run(ctx); err != nil {
		return fmt.Errorf("indexer run: %w", err)
	}

	return nil
}
