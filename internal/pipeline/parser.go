package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"inquiry/internal"
	"inquiry/internal/catalog"
)

const (
	headerConfidence    = 0.95
	currencyConfidence  = 0.8
	defaultCurrencyConf = 0.5
	unitConfidence      = 0.8
)

type ParserOptions struct {
	DefaultCurrency string
	DefaultUnit     string
}

// Parser turns raw inquiry emails into events. It holds only read-only state
// after construction and may be shared between goroutines.
type Parser struct {
	catalog  *catalog.Catalog
	vocab    *catalog.Vocabulary
	patterns []aliasPattern
	opts     ParserOptions
}

func NewParser(cat *catalog.Catalog, opts ParserOptions) *Parser {
	return &Parser{
		catalog:  cat,
		vocab:    cat.Vocabulary(),
		patterns: compileAliasPatterns(cat.Vocabulary()),
		opts:     opts,
	}
}

// EmailID is a stable identifier for the exact email text.
func EmailID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

func (p *Parser) Parse(text string) internal.Event {
	header, body := splitHeaderBody(text)
	from, subject := parseHeaders(header)

	event := internal.Event{
		EmailID:  EmailID(text),
		From:     from,
		Subject:  subject,
		Currency: p.detectCurrency(body),
	}

	mentions := p.matchKnownProducts(strings.ToLower(body))
	mentions = append(mentions, p.unknownProductMentions(body)...)

	event.Items = p.consolidate(mentions)
	event.MissingFields = p.missingFields(event)
	return event
}
