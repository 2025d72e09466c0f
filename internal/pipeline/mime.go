package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime"
)

// DecodeRawEmail turns an RFC 5322 message into the plain "Header: value"
// text form the parser reads. Only From and Subject are carried over, and the
// body is the text part (enmime down-converts HTML-only mail).
func DecodeRawEmail(raw []byte) (string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("read mime envelope: %w", err)
	}

	var b strings.Builder
	if from := strings.TrimSpace(env.GetHeader("From")); from != "" {
		b.WriteString("From: " + from + "\n")
	}
	if subject := strings.TrimSpace(env.GetHeader("Subject")); subject != "" {
		b.WriteString("Subject: " + subject + "\n")
	}
	b.WriteString("\n")
	b.WriteString(env.Text)
	return b.String(), nil
}
