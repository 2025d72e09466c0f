// Package ack drafts the acknowledgment reply for a parsed inquiry.
package ack

import (
	"fmt"
	"net/mail"
	"strings"

	"inquiry/internal"
	"inquiry/internal/util"
)

const maxQuestions = 2

func Draft(event internal.Event, slaText string) internal.AckDraft {
	to := "customer"
	if event.From.Value != nil {
		to = *event.From.Value
	}
	subject := "your inquiry"
	if event.Subject.Value != nil {
		subject = *event.Subject.Value
	}

	lines := []string{greeting(event.From.Value), ""}
	if len(event.Items) > 0 {
		lines = append(lines, fmt.Sprintf("Thank you for reaching out to us regarding %s.", describeItems(event.Items)))
	} else {
		lines = append(lines, "Thank you for your inquiry.")
	}

	questions := questionsFor(event.MissingFields)
	if len(questions) > 0 {
		lines = append(lines, "", "To help us prepare an accurate quote, could you please clarify the following:")
		for _, q := range questions {
			lines = append(lines, "- "+q)
		}
	}
	lines = append(lines, "", slaText, "", "Kind regards,", "Sales Team")

	missing := event.MissingFields
	if missing == nil {
		missing = []string{}
	}
	return internal.AckDraft{
		EmailID:       event.EmailID,
		To:            to,
		Subject:       "Re: " + subject,
		Body:          strings.Join(lines, "\n"),
		MissingFields: missing,
		Questions:     questions,
	}
}

// greeting addresses the sender by display name, else by mailbox local part.
func greeting(from *string) string {
	if from == nil {
		return "Hello,"
	}
	name := *from
	if addr, err := mail.ParseAddress(name); err == nil {
		name = addr.Name
		if name == "" {
			name = addr.Address
		}
	}
	if local, _, found := strings.Cut(name, "@"); found {
		name = local
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hello,"
	}
	return fmt.Sprintf("Hello %s,", util.TitleCase(name))
}

func describeItems(items []internal.Item) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		name := util.Deref(item.ProductName.Value)
		if item.Quantity.Value != nil {
			parts = append(parts, fmt.Sprintf("%d %s(s)", *item.Quantity.Value, name))
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}

func questionsFor(missing []string) []string {
	if len(missing) > maxQuestions {
		missing = missing[:maxQuestions]
	}
	out := make([]string, 0, len(missing))
	for _, field := range missing {
		if q := question(field); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func question(field string) string {
	if product, ok := strings.CutPrefix(field, "quantity for "); ok {
		return fmt.Sprintf("Could you please confirm the quantity required for %s?", product)
	}
	if product, ok := strings.CutPrefix(field, "price for "); ok {
		return fmt.Sprintf("Could you provide more details about %s so we can confirm pricing?", product)
	}
	switch field {
	case "items":
		return "Could you specify which products and quantities you are interested in?"
	case "subject":
		return "Could you provide a brief subject for this inquiry?"
	case "from":
		return "Could you let us know your preferred contact email?"
	}
	return ""
}
