package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

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

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "inbox:process":
		flags := flag.NewFlagSet(cmd, flag.ExitOnError)
		inbox := flags.String("inbox", cfg.InboxDir, "directory of .txt emails")
		_ = flags.Parse(os.Args[2:])
		proc := newProcessor(cfg, db, logger)
		res, err := proc.ProcessInbox(ctx, *inbox)
		must(err)
		fmt.Printf("inbox done trace=%s processed=%d skipped=%d failed=%d\n", res.TraceID, res.Processed, res.Skipped, res.Failed)
	case "run":
		flags := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := flags.String("input", "", "email text file")
		_ = flags.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		raw, err := os.ReadFile(*input)
		must(err)
		out, err := newProcessor(cfg, db, logger).Preview(string(raw))
		must(err)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		must(enc.Encode(out))
	case "catalog:sync":
		svc := catalog.NewSyncService(db, catalog.NewClient(cfg), logger)
		count, err := svc.Sync(ctx)
		must(err)
		fmt.Printf("catalog sync complete: %d products\n", count)
	case "mail:fetch":
		flags := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := flags.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := flags.String("label", "INBOX", "mailbox/label")
		max := flags.Int("max", 50, "max messages")
		_ = flags.Parse(os.Args[2:])
		conn, err := makeConnector(ctx, cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, logger)
		result, err := fetch.FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		flags := flag.NewFlagSet(cmd, flag.ExitOnError)
		batch := flags.Int("batch", 20, "batch size")
		_ = flags.Parse(os.Args[2:])
		proc := newProcessor(cfg, db, logger)
		must(proc.RequireMailQueue())
		res, err := proc.ProcessPending(ctx, *batch)
		must(err)
		fmt.Printf("processed pending trace=%s processed=%d skipped=%d failed=%d\n", res.TraceID, res.Processed, res.Skipped, res.Failed)
	case "mail:listen":
		proc := newProcessor(cfg, db, logger)
		must(proc.RequireMailQueue())
		conn, err := makeConnector(ctx, cfg, cfg.MailListenerProvider)
		must(err)
		s := listener.NewService(db, conn, proc, cfg, logger)
		must(s.Run(ctx))
	case "export:xlsx":
		flags := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := flags.String("out", "", "output xlsx path")
		_ = flags.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		rows, err := db.GetExportRows()
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no stored events to export"))
		}
		must(pipeline.ExportEventsToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	default:
		usage()
		os.Exit(1)
	}
}

// newProcessor wires the catalog, discount rules and configured store.
func newProcessor(cfg config.Config, db *storage.DB, logger *zap.Logger) *pipeline.ProcessingService {
	cat, err := loadCatalog(cfg, db)
	must(err)
	rules, err := catalog.LoadDiscountRules(cfg.DiscountRulesPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("no discount rules", zap.String("path", cfg.DiscountRulesPath))
		rules, err = nil, nil
	}
	must(err)

	var store pipeline.Store = db
	if cfg.StoreBackend == "files" {
		fileStore, err := storage.OpenFileStore(cfg.DataDir)
		must(err)
		store = fileStore
	}
	logger.Debug("pipeline ready", zap.Int("products", cat.Len()), zap.Int("discountRules", len(rules)), zap.String("store", cfg.StoreBackend))
	return pipeline.NewProcessingService(store, cat, rules, cfg, logger)
}

// loadCatalog reads CATALOG_PATH, or the synced products when it is empty.
func loadCatalog(cfg config.Config, db *storage.DB) (*catalog.Catalog, error) {
	if strings.TrimSpace(cfg.CatalogPath) != "" {
		return catalog.Load(cfg.CatalogPath)
	}
	products, err := db.ListProducts()
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no catalog: set CATALOG_PATH or run catalog:sync")
	}
	return catalog.New(products), nil
}

func makeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: inquiry <command>")
	fmt.Println("commands:")
	fmt.Println("  inbox:process --inbox=./inbox")
	fmt.Println("  run --input=email.txt")
	fmt.Println("  catalog:sync")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --batch=20")
	fmt.Println("  mail:listen")
	fmt.Println("  export:xlsx --out=./out/inquiries.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
