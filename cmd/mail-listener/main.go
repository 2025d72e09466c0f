package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"inquiry/internal"
	"inquiry/internal/catalog"
	"inquiry/internal/config"
	"inquiry/internal/connectors"
	gmailconnector "inquiry/internal/connectors/gmail"
	imapconnector "inquiry/internal/connectors/imap"
	"inquiry/internal/listener"
	"inquiry/internal/logging"
	"inquiry/internal/pipeline"
	"inquiry/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = logger.Sync() }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
	} else {
		var products []internal.Product
		products, err = db.ListProducts()
		cat = catalog.New(products)
	}
	must(err)
	rules, err := catalog.LoadDiscountRules(cfg.DiscountRulesPath)
	if err != nil {
		logger.Warn("discount rules unavailable", zap.Error(err))
		rules = nil
	}

	var conn connectors.MailConnector
	switch cfg.MailListenerProvider {
	case "gmail":
		conn, err = gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		conn, err = imapconnector.NewConnector(cfg)
	default:
		err = fmt.Errorf("unsupported listener provider: %s", cfg.MailListenerProvider)
	}
	must(err)

	proc := pipeline.NewProcessingService(db, cat, rules, cfg, logger)
	svc := listener.NewService(db, conn, proc, cfg, logger)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
