package connectors

import (
	"context"

	"go.uber.org/zap"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
	logger    *zap.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
}

func NewFetchService(store RawMailStore, rawMailDir string, connector MailConnector, logger *zap.Logger) *FetchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(store, rawMailDir),
		logger:    logger,
	}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	stored := 0
	for _, msg := range messages {
		row, err := s.store.Store(msg)
		if err != nil {
			return FetchResult{Fetched: len(messages), Stored: stored}, err
		}
		s.logger.Debug("mail stored",
			zap.String("provider", row.Provider),
			zap.String("messageId", row.MessageID),
			zap.String("status", row.Status),
		)
		stored++
	}

	return FetchResult{Fetched: len(messages), Stored: stored}, nil
}
