package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"inquiry/internal"
)

// FileStore keeps every artifact as a JSON document under a base directory.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

func OpenFileStore(baseDir string) (*FileStore, error) {
	for _, dir := range []string{"events", "outbox", "quotes", "timeline"} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return nil, err
		}
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) eventPath(emailID string) string {
	return filepath.Join(s.baseDir, "events", emailID+".json")
}

func (s *FileStore) HasEvent(emailID string) (bool, error) {
	_, err := os.Stat(s.eventPath(emailID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SaveEvent reports false when the event file already exists.
func (s *FileStore) SaveEvent(event internal.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.HasEvent(event.EmailID)
	if err != nil || exists {
		return false, err
	}
	if err := writeJSONAtomic(s.eventPath(event.EmailID), event); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) GetEvent(emailID string) (*internal.Event, error) {
	data, err := os.ReadFile(s.eventPath(emailID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var event internal.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", emailID, err)
	}
	return &event, nil
}

func (s *FileStore) SaveAck(draft internal.AckDraft) error {
	return writeJSONAtomic(filepath.Join(s.baseDir, "outbox", draft.EmailID+"_ack.json"), draft)
}

func (s *FileStore) SaveQuote(q internal.Quote) error {
	return writeJSONAtomic(filepath.Join(s.baseDir, "quotes", q.EmailID+".json"), q)
}

// AppendActivity adds one JSON line to the timeline log.
func (s *FileStore) AppendActivity(a internal.Activity) error {
	line, err := json.Marshal(a)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.baseDir, "timeline", "activity.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
