package pipeline

import (
	"fmt"

	"inquiry/internal"
)

const quantityMissingNote = "quantity missing"

// consolidate folds mentions into one item per product name, in order of
// first mention. The first quantity seen is kept; product confidence only rises.
func (p *Parser) consolidate(mentions []mention) []internal.Item {
	items := make([]internal.Item, 0)
	index := map[string]int{}

	for _, m := range mentions {
		i, exists := index[m.name]
		if !exists {
			index[m.name] = len(items)
			items = append(items, p.newItem(m))
			continue
		}

		item := &items[i]
		if item.Quantity.Value == nil && m.quantity != nil {
			qty := *m.quantity
			item.Quantity = internal.Field[int]{Value: &qty, Confidence: m.confidence}
		}
		if m.confidence > item.ProductName.Confidence {
			item.ProductName.Confidence = m.confidence
		}
	}
	return items
}

func (p *Parser) newItem(m mention) internal.Item {
	name := m.name
	item := internal.Item{
		ProductName: internal.Field[string]{Value: &name, Confidence: m.confidence, Notes: m.note},
		Quantity:    missingField[int](quantityMissingNote),
		Unit:        internal.Field[string]{Confidence: unitConfidence},
	}
	if m.quantity != nil {
		qty := *m.quantity
		item.Quantity = internal.Field[int]{Value: &qty, Confidence: m.confidence}
	}

	unit := p.opts.DefaultUnit
	if product, ok := p.catalog.Get(name); ok && product.UnitOfMeasure != "" {
		unit = product.UnitOfMeasure
	}
	item.Unit.Value = &unit
	return item
}

func (p *Parser) missingFields(event internal.Event) []string {
	out := make([]string, 0)
	if event.From.Value == nil {
		out = append(out, "from")
	}
	if event.Subject.Value == nil {
		out = append(out, "subject")
	}
	if len(event.Items) == 0 {
		return append(out, "items")
	}
	for _, item := range event.Items {
		name := *item.ProductName.Value
		if item.Quantity.Value == nil {
			out = append(out, fmt.Sprintf("quantity for %s", name))
		}
		if !p.catalog.Has(name) {
			out = append(out, fmt.Sprintf("price for %s", name))
		}
	}
	return out
}
