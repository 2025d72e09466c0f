package listener

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"inquiry/internal"
	"inquiry/internal/catalog"
	"inquiry/internal/config"
	"inquiry/internal/pipeline"
	"inquiry/internal/storage"
)

type stubConnector struct {
	batches [][]internal.FetchedMailMessage
	err     error
	calls   int
}

func (c *stubConnector) FetchInbox(context.Context, string, int) ([]internal.FetchedMailMessage, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if len(c.batches) == 0 {
		return nil, nil
	}
	next := c.batches[0]
	c.batches = c.batches[1:]
	return next, nil
}

func setup(t *testing.T, conn *stubConnector) (*Service, *storage.DB, config.Config, *observer.ObservedLogs) {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		DefaultCurrency:          "INR",
		DefaultUnit:              "unit",
		TaxRate:                  0.18,
		Workers:                  1,
		RawMailDir:               filepath.Join(tmp, "raw"),
		OutputDir:                filepath.Join(tmp, "out"),
		MailListenerLabel:        "INBOX",
		MailListenerIntervalSec:  1,
		MailListenerFetchMax:     10,
		MailListenerProcessBatch: 10,
		MailListenerAutoExport:   true,
	}
	cat := catalog.New([]internal.Product{{Name: "Widget", UnitPrice: 2.5, UnitOfMeasure: "pcs"}})
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	proc := pipeline.NewProcessingService(db, cat, nil, cfg, logger)
	return NewService(db, conn, proc, cfg, logger), db, cfg, logs
}

func TestRunCycleFetchesProcessesAndExports(t *testing.T) {
	raw := []byte("From: buyer@example.com\r\nSubject: Order\r\n\r\nWe need 4 widgets\r\n")
	conn := &stubConnector{batches: [][]internal.FetchedMailMessage{{
		{Provider: "imap", MessageID: "<1@x>", From: "buyer@example.com", Subject: "Order", ReceivedAt: "2024-01-01T00:00:00Z", Raw: raw},
	}}}
	svc, db, cfg, logs := setup(t, conn)

	require.NoError(t, svc.RunCycle(context.Background()))

	rows, err := db.GetExportRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, *rows[0].Quantity)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "listener", "inquiries.xlsx"))

	entries := logs.FilterMessage("listener cycle done").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["processed"])
}

func TestRunLogsFailuresAndStopsOnCancel(t *testing.T) {
	conn := &stubConnector{err: errors.New("mailbox unavailable")}
	svc, _, _, logs := setup(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, svc.Run(ctx))

	assert.GreaterOrEqual(t, conn.calls, 1)
	assert.GreaterOrEqual(t, logs.FilterMessage("listener cycle failed").Len(), 1)
}

func TestRunRejectsFileStoreProcessor(t *testing.T) {
	conn := &stubConnector{}
	svc, _, cfg, _ := setup(t, conn)
	files, err := storage.OpenFileStore(t.TempDir())
	require.NoError(t, err)
	cat := catalog.New([]internal.Product{{Name: "Widget", UnitPrice: 2.5}})
	svc.processor = pipeline.NewProcessingService(files, cat, nil, cfg, nil)

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, conn.calls)
}
