// Package connectors pulls raw inquiry mail from a provider into the local
// raw-mail queue.
package connectors

import (
	"context"

	"inquiry/internal"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

// RawMailStore records fetched messages for later processing.
type RawMailStore interface {
	UpsertRawEmail(msg internal.FetchedMailMessage, hash, rawRef string) (internal.RawEmailRow, error)
}
