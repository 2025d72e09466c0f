package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"inquiry/internal"
)

// MailStoreService writes each raw message once, content-addressed by its
// SHA-256, and queues it in the store.
type MailStoreService struct {
	store      RawMailStore
	rawMailDir string
}

func NewMailStoreService(store RawMailStore, rawMailDir string) *MailStoreService {
	return &MailStoreService{store: store, rawMailDir: rawMailDir}
}

func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.RawEmailRow, error) {
	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.RawEmailRow{}, err
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.RawEmailRow{}, fmt.Errorf("write raw mail %s: %w", msg.MessageID, err)
		}
	}

	return s.store.UpsertRawEmail(msg, hash, rawPath)
}
