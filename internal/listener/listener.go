// Package listener polls a mailbox and runs new mail through the pipeline.
package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"inquiry/internal/config"
	"inquiry/internal/connectors"
	"inquiry/internal/pipeline"
	"inquiry/internal/storage"
)

type Service struct {
	db        *storage.DB
	connector connectors.MailConnector
	processor *pipeline.ProcessingService
	cfg       config.Config
	logger    *zap.Logger
}

func NewService(db *storage.DB, connector connectors.MailConnector, processor *pipeline.ProcessingService, cfg config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, connector: connector, processor: processor, cfg: cfg, logger: logger}
}

// Run polls until ctx is cancelled. A failed cycle is logged and retried on
// the next tick. It returns at once if the processor's store has no mail queue.
func (s *Service) Run(ctx context.Context) error {
	if err := s.processor.RequireMailQueue(); err != nil {
		return err
	}
	interval := time.Duration(max(s.cfg.MailListenerIntervalSec, 1)) * time.Second
	s.logger.Info("listener started",
		zap.String("provider", s.cfg.MailListenerProvider),
		zap.String("label", s.cfg.MailListenerLabel),
		zap.Duration("interval", interval),
	)
	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("listener cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) error {
	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, s.connector, s.logger)
	fetched, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	processed, err := s.processor.ProcessPending(ctx, s.cfg.MailListenerProcessBatch)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	if s.cfg.MailListenerAutoExport && processed.Processed > 0 {
		if err := s.export(); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}

	s.logger.Info("listener cycle done",
		zap.String("traceId", processed.TraceID),
		zap.Int("fetched", fetched.Fetched),
		zap.Int("stored", fetched.Stored),
		zap.Int("processed", processed.Processed),
		zap.Int("skipped", processed.Skipped),
		zap.Int("failed", processed.Failed),
	)
	return nil
}

func (s *Service) export() error {
	rows, err := s.db.GetExportRows()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return pipeline.ExportEventsToXLSX(rows, filepath.Join(s.cfg.OutputDir, "listener", "inquiries.xlsx"))
}
