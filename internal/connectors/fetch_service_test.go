package connectors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquiry/internal"
	"inquiry/internal/storage"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
	err      error
	label    string
	max      int
}

func (c *stubConnector) FetchInbox(_ context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	c.label, c.max = label, max
	return c.messages, c.err
}

func TestFetchAndStoreQueuesRawMail(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	raw := []byte("From: a@b.c\r\nSubject: Hi\r\n\r\nWe need 3 widgets\r\n")
	conn := &stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<1@b.c>", Subject: "Hi", From: "a@b.c", ReceivedAt: "2024-01-01T00:00:00Z", Raw: raw},
		{Provider: "imap", MessageID: "<2@b.c>", Subject: "Hi", From: "a@b.c", ReceivedAt: "2024-01-02T00:00:00Z", Raw: raw},
	}}

	svc := NewFetchService(db, filepath.Join(tmp, "raw"), conn, nil)
	res, err := svc.FetchAndStore(context.Background(), "INBOX", 5)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Stored: 2}, res)
	assert.Equal(t, "INBOX", conn.label)
	assert.Equal(t, 5, conn.max)

	rows, err := db.ListRawEmailsByStatus(storage.RawStatusFetched, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, rows[0].RawRef, rows[1].RawRef, "identical content shares one file")

	stored, err := os.ReadFile(rows[0].RawRef)
	require.NoError(t, err)
	assert.Equal(t, raw, stored)
}

func TestFetchAndStorePropagatesConnectorError(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("imap down")
	svc := NewFetchService(db, t.TempDir(), &stubConnector{err: boom}, nil)
	_, err = svc.FetchAndStore(context.Background(), "INBOX", 5)
	assert.ErrorIs(t, err, boom)
}
