package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte("From: a@b.c\r\n\r\nhi??>>")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}

	_, err := decodeBase64URL("!!not base64!!")
	assert.Error(t, err)
}

func TestToFetched(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	msg := toFetched("g1", map[string]string{
		"date":       "Mon, 02 Jan 2006 15:04:05 +0530",
		"message-id": "<m1@example.com>",
		"subject":    "Order",
		"from":       "a@b.c",
	}, []byte("raw"), now)
	assert.Equal(t, "gmail", msg.Provider)
	assert.Equal(t, "<m1@example.com>", msg.MessageID)
	assert.Equal(t, "2006-01-02T09:34:05Z", msg.ReceivedAt)
	assert.Equal(t, "Order", msg.Subject)

	fallback := toFetched("g2", map[string]string{"date": "yesterday"}, nil, now)
	assert.Equal(t, "g2", fallback.MessageID)
	assert.Equal(t, "2024-03-01T10:00:00Z", fallback.ReceivedAt)
}
