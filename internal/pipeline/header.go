package pipeline

import (
	"strings"

	"inquiry/internal"
)

// splitHeaderBody cuts the text at the first blank line.
func splitHeaderBody(text string) (string, string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	header, body, found := strings.Cut(text, "\n\n")
	if !found {
		return header, ""
	}
	return header, body
}

func parseHeaders(header string) (from, subject internal.Field[string]) {
	from = missingField[string]("missing sender")
	subject = missingField[string]("missing subject")

	seenFrom, seenSubject := false, false
	for _, line := range strings.Split(header, "\n") {
		lower := strings.ToLower(line)
		switch {
		case !seenFrom && strings.HasPrefix(lower, "from:"):
			seenFrom = true
			from = headerField(line, "missing sender")
		case !seenSubject && strings.HasPrefix(lower, "subject:"):
			seenSubject = true
			subject = headerField(line, "missing subject")
		}
	}
	return from, subject
}

func headerField(line, missingNote string) internal.Field[string] {
	_, value, _ := strings.Cut(line, ":")
	value = strings.TrimSpace(value)
	if value == "" {
		return missingField[string](missingNote)
	}
	return internal.Field[string]{Value: &value, Confidence: headerConfidence}
}

func missingField[T any](note string) internal.Field[T] {
	return internal.Field[T]{Confidence: 0, Notes: note}
}
