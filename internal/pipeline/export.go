package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"inquiry/internal"
	"inquiry/internal/util"
)

var exportHeaders = []string{
	"email_id", "sender", "subject", "currency",
	"product_name", "product_confidence", "product_notes",
	"quantity", "quantity_confidence", "quantity_notes", "unit",
	"missing_fields", "quote_status", "quote_total",
}

// ExportEventsToXLSX writes one sheet row per extracted item.
func ExportEventsToXLSX(rows []internal.EventExportRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.EmailID)
		set(2, util.Deref(row.Sender))
		set(3, util.Deref(row.Subject))
		set(4, util.Deref(row.Currency))
		set(5, util.Deref(row.ProductName))
		set(6, row.ProductConfidence)
		set(7, row.ProductNotes)
		set(8, optional(row.Quantity))
		set(9, row.QuantityConfidence)
		set(10, row.QuantityNotes)
		set(11, util.Deref(row.Unit))
		set(12, row.MissingFields)
		set(13, util.Deref(row.QuoteStatus))
		set(14, optional(row.QuoteTotal))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// optional leaves the cell blank for nil values.
func optional[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}
