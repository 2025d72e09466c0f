package imap

import (
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
)

func TestFormatAddresses(t *testing.T) {
	got := formatAddresses([]*imap.Address{
		{PersonalName: "Ravi Kumar", MailboxName: "ravi", HostName: "example.in"},
		nil,
		{MailboxName: "sales", HostName: "acme.io"},
	})
	assert.Equal(t, "Ravi Kumar <ravi@example.in>, sales@acme.io", got)
	assert.Equal(t, "", formatAddresses(nil))
}

func TestNewest(t *testing.T) {
	ids := []uint32{1, 2, 3, 4, 5}
	assert.Equal(t, []uint32{4, 5}, newest(ids, 2))
	assert.Equal(t, ids, newest(ids, 10))
	assert.Equal(t, ids, newest(ids, 0))
}

func TestToFetched(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	msg := toFetched(&imap.Message{
		Uid:          42,
		InternalDate: time.Date(2024, 2, 1, 8, 0, 0, 0, time.FixedZone("", 3600)),
		Envelope:     &imap.Envelope{Subject: "Order", MessageId: "<m@x>", From: []*imap.Address{{MailboxName: "a", HostName: "b.c"}}},
	}, []byte("raw"), now)
	assert.Equal(t, "imap", msg.Provider)
	assert.Equal(t, "<m@x>", msg.MessageID)
	assert.Equal(t, "a@b.c", msg.From)
	assert.Equal(t, "2024-02-01T07:00:00Z", msg.ReceivedAt)

	bare := toFetched(&imap.Message{Uid: 7}, nil, now)
	assert.Equal(t, "imap-7", bare.MessageID)
	assert.Equal(t, "2024-03-01T10:00:00Z", bare.ReceivedAt)
}
