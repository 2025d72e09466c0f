package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquiry/internal"
	"inquiry/internal/catalog"
	"inquiry/internal/util"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]internal.Product{
		{Name: "Widget", UnitPrice: 2.5, UnitOfMeasure: "pcs"},
		{Name: "Gadget", UnitPrice: 10, UnitOfMeasure: "box"},
	})
}

func item(name string, qty *int) internal.Item {
	it := internal.Item{ProductName: internal.Field[string]{Value: util.StringPtr(name)}}
	it.Quantity.Value = qty
	return it
}

var rules = []internal.DiscountRule{
	{MinQuantity: 10, Discount: 0.05},
	{MinQuantity: 100, Discount: 0.1},
}

func TestDiscountRate(t *testing.T) {
	cases := []struct {
		qty  int
		want float64
	}{
		{qty: 1, want: 0},
		{qty: 10, want: 0.05},
		{qty: 99, want: 0.05},
		{qty: 100, want: 0.1},
		{qty: 500, want: 0.1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DiscountRate(tc.qty, rules), "qty %d", tc.qty)
	}
	assert.Equal(t, 0.0, DiscountRate(1000, nil))
}

func TestGenerateComplete(t *testing.T) {
	event := internal.Event{
		EmailID:  "e1",
		Currency: internal.Field[string]{Value: util.StringPtr("INR")},
		Items:    []internal.Item{item("Widget", util.IntPtr(10)), item("Gadget", util.IntPtr(2))},
	}

	q := Generate(event, testCatalog(), rules, 0.18)

	assert.Equal(t, internal.QuoteComplete, q.Status)
	require.Len(t, q.LineItems, 2)
	widget := q.LineItems[0]
	assert.Equal(t, 0.05, widget.DiscountRate)
	assert.Equal(t, 1.25, widget.DiscountAmount)
	assert.Equal(t, 23.75, *widget.Subtotal)
	assert.Equal(t, 20.0, *q.LineItems[1].Subtotal)
	assert.Equal(t, 43.75, q.Subtotal)
	assert.Equal(t, 7.88, q.Tax)
	assert.Equal(t, 51.63, q.Total)
	assert.Equal(t, "INR", *q.Currency)
	assert.Empty(t, q.MissingFields)
}

func TestGeneratePendingOnUnknownProductAndMissingQuantity(t *testing.T) {
	event := internal.Event{
		EmailID: "e2",
		Items: []internal.Item{
			item("Widget", util.IntPtr(4)),
			item("Gadget", nil),
			item("Sprockets", util.IntPtr(3)),
		},
	}

	q := Generate(event, testCatalog(), rules, 0.18)

	assert.Equal(t, internal.QuotePending, q.Status)
	assert.Equal(t, []string{"quantity for Gadget", "price for Sprockets"}, q.MissingFields)
	require.Len(t, q.LineItems, 3)
	assert.Equal(t, 10.0, *q.LineItems[1].UnitPrice)
	assert.Nil(t, q.LineItems[1].Subtotal)
	assert.Nil(t, q.LineItems[2].UnitPrice)
	assert.Equal(t, 10.0, q.Subtotal)
	assert.Zero(t, q.Tax)
	assert.Zero(t, q.Total)
}

func TestGenerateNoItems(t *testing.T) {
	q := Generate(internal.Event{EmailID: "e3"}, testCatalog(), nil, 0.18)

	assert.Equal(t, internal.QuoteComplete, q.Status)
	assert.Empty(t, q.LineItems)
	assert.Zero(t, q.Total)
}

func TestGenerateTotalRoundsUnroundedSubtotalPlusTax(t *testing.T) {
	cat := catalog.New([]internal.Product{{Name: "Shim", UnitPrice: 0.333}})
	event := internal.Event{Items: []internal.Item{item("Shim", util.IntPtr(3))}}

	q := Generate(event, cat, nil, 0.18)

	assert.Equal(t, 1.0, *q.LineItems[0].Subtotal)
	assert.Equal(t, 1.0, q.Subtotal)
	assert.Equal(t, 0.18, q.Tax)
	assert.Equal(t, 1.18, q.Total)
}
