package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"inquiry/internal"
)

const lastSyncKey = "catalog.last_sync"

// ProductStore is the persistence the sync writes to.
type ProductStore interface {
	UpsertProducts(products []internal.Product) error
	SetMetadata(key, value string) error
}

type SyncService struct {
	store  ProductStore
	client *Client
	logger *zap.Logger
}

func NewSyncService(store ProductStore, client *Client, logger *zap.Logger) *SyncService {
	return &SyncService{store: store, client: client, logger: logger}
}

func (s *SyncService) Sync(ctx context.Context) (int, error) {
	start := time.Now()
	products, err := s.client.FetchPriceList(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch price list: %w", err)
	}
	if len(products) > 0 {
		if err := s.store.UpsertProducts(products); err != nil {
			return 0, fmt.Errorf("store products: %w", err)
		}
	}
	_ = s.store.SetMetadata(lastSyncKey, time.Now().UTC().Format(time.RFC3339))
	s.logger.Info("price list synced", zap.Int("products", len(products)), zap.Duration("took", time.Since(start)))
	return len(products), nil
}
