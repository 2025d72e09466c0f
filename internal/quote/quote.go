// Package quote prices a parsed inquiry against the catalog.
package quote

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"inquiry/internal"
	"inquiry/internal/catalog"
	"inquiry/internal/util"
)

// DiscountRate returns the rate of the rule with the highest min_quantity the
// quantity reaches, or 0.
func DiscountRate(quantity int, rules []internal.DiscountRule) float64 {
	sorted := make([]internal.DiscountRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinQuantity > sorted[j].MinQuantity })

	for _, r := range sorted {
		if quantity >= r.MinQuantity {
			return r.Discount
		}
	}
	return 0
}

// Generate builds a quote. Lines without a catalog price or a quantity leave
// the quote pending, and tax and total are then not computed.
func Generate(event internal.Event, cat *catalog.Catalog, rules []internal.DiscountRule, taxRate float64) internal.Quote {
	q := internal.Quote{
		EmailID:       event.EmailID,
		Status:        internal.QuoteComplete,
		LineItems:     make([]internal.QuoteLine, 0, len(event.Items)),
		Currency:      event.Currency.Value,
		MissingFields: []string{},
	}

	subtotal := decimal.Zero
	pending := false
	for _, item := range event.Items {
		name := util.Deref(item.ProductName.Value)
		line := internal.QuoteLine{ProductName: name, Quantity: item.Quantity.Value}

		product, ok := cat.Get(name)
		if !ok {
			pending = true
			q.MissingFields = append(q.MissingFields, fmt.Sprintf("price for %s", name))
			q.LineItems = append(q.LineItems, line)
			continue
		}
		line.UnitPrice = util.FloatPtr(product.UnitPrice)
		if item.Quantity.Value == nil {
			pending = true
			q.MissingFields = append(q.MissingFields, fmt.Sprintf("quantity for %s", name))
			q.LineItems = append(q.LineItems, line)
			continue
		}

		rate := DiscountRate(*item.Quantity.Value, rules)
		gross := decimal.NewFromFloat(product.UnitPrice).Mul(decimal.NewFromInt(int64(*item.Quantity.Value)))
		discount := gross.Mul(decimal.NewFromFloat(rate))
		net := gross.Sub(discount)

		line.DiscountRate = rate
		line.DiscountAmount = round2(discount)
		line.Subtotal = util.FloatPtr(round2(net))
		q.LineItems = append(q.LineItems, line)
		subtotal = subtotal.Add(net)
	}

	q.Subtotal = round2(subtotal)
	if pending {
		q.Status = internal.QuotePending
		return q
	}

	tax := subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(2)
	q.Tax = tax.InexactFloat64()
	q.Total = round2(subtotal.Add(tax))
	return q
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
