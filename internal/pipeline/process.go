package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"inquiry/internal"
	"inquiry/internal/ack"
	"inquiry/internal/catalog"
	"inquiry/internal/config"
	"inquiry/internal/quote"
	"inquiry/internal/storage"
)

const timestampLayout = "2006-01-02T15:04:05-07:00"

// Store persists the artifacts of a processed inquiry.
type Store interface {
	SaveEvent(event internal.Event) (bool, error)
	SaveAck(draft internal.AckDraft) error
	SaveQuote(q internal.Quote) error
	AppendActivity(a internal.Activity) error
}

// MailQueue is the raw fetched-mail table. Only the SQLite store has one.
type MailQueue interface {
	ListRawEmailsByStatus(status string, limit int) ([]internal.RawEmailRow, error)
	UpdateRawEmailStatus(id int, status string) error
}

type RunRecorder interface {
	InsertRun(traceID, kind string, timings map[string]float64, counts map[string]int) error
}

var (
	_ Store       = (*storage.DB)(nil)
	_ Store       = (*storage.FileStore)(nil)
	_ MailQueue   = (*storage.DB)(nil)
	_ RunRecorder = (*storage.DB)(nil)
)

type ProcessingService struct {
	store   Store
	parser  *Parser
	catalog *catalog.Catalog
	rules   []internal.DiscountRule
	cfg     config.Config
	logger  *zap.Logger
	zone    *time.Location
	now     func() time.Time
}

func NewProcessingService(store Store, cat *catalog.Catalog, rules []internal.DiscountRule, cfg config.Config, logger *zap.Logger) *ProcessingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessingService{
		store:   store,
		parser:  NewParser(cat, ParserOptions{DefaultCurrency: cfg.DefaultCurrency, DefaultUnit: cfg.DefaultUnit}),
		catalog: cat,
		rules:   rules,
		cfg:     cfg,
		logger:  logger,
		zone:    time.FixedZone("", cfg.TimelineUTCOffsetMin*60),
		now:     time.Now,
	}
}

type ProcessResult struct {
	TraceID   string
	Processed int
	Skipped   int
	Failed    int
}

type inboxFile struct {
	name     string
	event    internal.Event
	readErr  error
	parseErr error
}

// ProcessInbox handles every .txt file in dir. Files are read and parsed
// concurrently, then persisted one by one in file name order.
func (s *ProcessingService) ProcessInbox(ctx context.Context, dir string) (ProcessResult, error) {
	start := time.Now()
	result := ProcessResult{TraceID: uuid.NewString()}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("read inbox %s: %w", dir, err)
	}
	files := make([]inboxFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".txt") {
			continue
		}
		files = append(files, inboxFile{name: entry.Name()})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Workers, 1))
	for i := range files {
		f := &files[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(filepath.Join(dir, f.name))
			if err != nil {
				f.readErr = err
				return nil
			}
			f.event, f.parseErr = SafeParse(s.parser, string(raw))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	parsedAt := time.Since(start)

	for _, f := range files {
		log := s.logger.With(zap.String("file", f.name))
		switch {
		case f.readErr != nil:
			log.Warn("read failed", zap.Error(f.readErr))
			s.activity(nil, internal.StepReadEmail, internal.StatusError, fmt.Sprintf("Failed to read %s: %v", f.name, f.readErr))
			result.Failed++
			continue
		case f.parseErr != nil:
			log.Warn("parse failed", zap.Error(f.parseErr))
			s.activity(nil, internal.StepParseEmail, internal.StatusError, fmt.Sprintf("Failed to parse %s: %v", f.name, f.parseErr))
			result.Failed++
			continue
		}

		saved, err := s.persist(f.event, f.name)
		if err != nil {
			return result, err
		}
		if saved {
			result.Processed++
		} else {
			result.Skipped++
		}
	}

	s.recordRun(result, "inbox", map[string]float64{
		"parseMs": float64(parsedAt.Milliseconds()),
		"totalMs": float64(time.Since(start).Milliseconds()),
	})
	s.logger.Info("inbox processed",
		zap.String("traceId", result.TraceID),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// RequireMailQueue fails when the configured store cannot hold fetched mail,
// so mail commands can refuse to start on the files backend.
func (s *ProcessingService) RequireMailQueue() error {
	_, err := s.mailQueue()
	return err
}

func (s *ProcessingService) mailQueue() (MailQueue, error) {
	queue, ok := s.store.(MailQueue)
	if !ok {
		return nil, fmt.Errorf("store %T has no fetched mail queue; mail commands need the sqlite backend", s.store)
	}
	return queue, nil
}

// ProcessPending runs fetched raw mail through the same steps as the inbox.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int) (ProcessResult, error) {
	start := time.Now()
	result := ProcessResult{TraceID: uuid.NewString()}

	queue, err := s.mailQueue()
	if err != nil {
		return result, err
	}
	pending, err := queue.ListRawEmailsByStatus(storage.RawStatusFetched, limit)
	if err != nil {
		return result, err
	}

	for _, row := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		log := s.logger.With(zap.String("provider", row.Provider), zap.String("messageId", row.MessageID))
		label := fmt.Sprintf("%s message %s", row.Provider, row.MessageID)

		status, err := s.processRaw(row, label)
		if err != nil {
			log.Warn("process failed", zap.Error(err))
			status = storage.RawStatusFailed
		}
		if err := queue.UpdateRawEmailStatus(row.ID, status); err != nil {
			return result, err
		}
		switch status {
		case storage.RawStatusProcessed:
			result.Processed++
		case storage.RawStatusSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	s.recordRun(result, "mail", map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())})
	return result, nil
}

func (s *ProcessingService) processRaw(row internal.RawEmailRow, label string) (string, error) {
	raw, err := os.ReadFile(row.RawRef)
	if err != nil {
		s.activity(nil, internal.StepReadEmail, internal.StatusError, fmt.Sprintf("Failed to read %s: %v", label, err))
		return storage.RawStatusFailed, nil
	}

	event, err := s.decodeAndParse(raw)
	if err != nil {
		s.activity(nil, internal.StepParseEmail, internal.StatusError, fmt.Sprintf("Failed to parse %s: %v", label, err))
		return storage.RawStatusFailed, nil
	}

	saved, err := s.persist(event, label)
	if err != nil {
		return "", err
	}
	if !saved {
		return storage.RawStatusSkipped, nil
	}
	return storage.RawStatusProcessed, nil
}

func (s *ProcessingService) decodeAndParse(raw []byte) (internal.Event, error) {
	text, err := DecodeRawEmail(raw)
	if err != nil {
		return internal.Event{}, err
	}
	return SafeParse(s.parser, text)
}

// Artifacts is everything derived from one email.
type Artifacts struct {
	Event internal.Event    `json:"event"`
	Ack   internal.AckDraft `json:"ack"`
	Quote internal.Quote    `json:"quote"`
}

// Preview derives the artifacts for text without touching the store.
func (s *ProcessingService) Preview(text string) (Artifacts, error) {
	event, err := SafeParse(s.parser, text)
	if err != nil {
		return Artifacts{}, err
	}
	return Artifacts{
		Event: event,
		Ack:   ack.Draft(event, s.cfg.SLAText),
		Quote: quote.Generate(event, s.catalog, s.rules, s.cfg.TaxRate),
	}, nil
}

func (s *ProcessingService) persist(event internal.Event, label string) (bool, error) {
	id := event.EmailID
	saved, err := s.store.SaveEvent(event)
	if err != nil {
		return false, fmt.Errorf("save event %s: %w", id, err)
	}
	if !saved {
		s.activity(&id, internal.StepSkipEmail, internal.StatusSkipped, fmt.Sprintf("Event for %s already processed", label))
		return false, nil
	}
	s.activity(&id, internal.StepParseEmail, internal.StatusSuccess, fmt.Sprintf("Parsed %s", label))

	draft := ack.Draft(event, s.cfg.SLAText)
	if err := s.store.SaveAck(draft); err != nil {
		return true, fmt.Errorf("save ack %s: %w", id, err)
	}
	s.activity(&id, internal.StepGenerateAck, internal.StatusSuccess, fmt.Sprintf("Drafted acknowledgment for %s", label))

	q := quote.Generate(event, s.catalog, s.rules, s.cfg.TaxRate)
	if err := s.store.SaveQuote(q); err != nil {
		return true, fmt.Errorf("save quote %s: %w", id, err)
	}
	status := internal.StatusSuccess
	if q.Status == internal.QuotePending {
		status = internal.StatusPending
	}
	s.activity(&id, internal.StepGenerateQuote, status, fmt.Sprintf("Generated %s quote for %s", q.Status, label))
	return true, nil
}

func (s *ProcessingService) activity(emailID *string, step, status, message string) {
	a := internal.Activity{
		Timestamp: s.now().In(s.zone).Format(timestampLayout),
		EmailID:   emailID,
		Step:      step,
		Status:    status,
		Message:   message,
	}
	if err := s.store.AppendActivity(a); err != nil {
		s.logger.Error("append activity", zap.String("step", step), zap.Error(err))
	}
}

func (s *ProcessingService) recordRun(result ProcessResult, kind string, timings map[string]float64) {
	recorder, ok := s.store.(RunRecorder)
	if !ok {
		return
	}
	counts := map[string]int{"processed": result.Processed, "skipped": result.Skipped, "failed": result.Failed}
	if err := recorder.InsertRun(result.TraceID, kind, timings, counts); err != nil {
		s.logger.Warn("record run", zap.String("traceId", result.TraceID), zap.Error(err))
	}
}

// SafeParse converts a parser panic into an error so one bad email cannot
// stop a batch.
func SafeParse(p *Parser, text string) (event internal.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return p.Parse(text), nil
}
