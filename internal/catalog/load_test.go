package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParsePriceListJSONKeepsOrder(t *testing.T) {
	blob := []byte(`{
  "Zeta Bolt": {"unit_price": 1.25, "unit_of_measure": "box"},
  "Alpha Nut": {"unit_price": 0.5, "unit_of_measure": "pcs"},
  "Widget": {"unit_price": 2}
}`)
	products, err := ParsePriceListJSON(blob)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Zeta Bolt", products[0].Name)
	assert.Equal(t, "Alpha Nut", products[1].Name)
	assert.Equal(t, "", products[2].UnitOfMeasure)
	assert.Equal(t, 2.0, products[2].UnitPrice)
}

func TestParsePriceListJSONRejectsArray(t *testing.T) {
	_, err := ParsePriceListJSON([]byte(`[]`))
	require.Error(t, err)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Product", "Unit Price", "Unit"},
		{"Widget", 2.5, "pcs"},
		{"Gadget", "10", "box"},
		{"", "", ""},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	widget, ok := c.Get("Widget")
	require.True(t, ok)
	assert.Equal(t, 2.5, widget.UnitPrice)
	assert.Equal(t, "pcs", widget.UnitOfMeasure)
}

func TestLoadDiscountRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"min_quantity": 10, "discount": 0.05}, {"min_quantity": 100, "discount": 0.1}]`), 0o644))

	rules, err := LoadDiscountRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 100, rules[1].MinQuantity)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load("prices.csv")
	require.Error(t, err)
}
