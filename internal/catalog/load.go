package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"inquiry/internal"
)

type productMeta struct {
	UnitPrice     float64 `json:"unit_price"`
	UnitOfMeasure string  `json:"unit_of_measure"`
}

// Load picks a loader from the file extension.
func Load(path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", path)
	}
}

func LoadJSON(path string) (*Catalog, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	products, err := ParsePriceListJSON(blob)
	if err != nil {
		return nil, fmt.Errorf("parse price list %s: %w", path, err)
	}
	return New(products), nil
}

// ParsePriceListJSON decodes a {"name": {"unit_price": .., "unit_of_measure": ..}}
// object keeping the key order of the document.
func ParsePriceListJSON(blob []byte) ([]internal.Product, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("price list must be a JSON object")
	}

	var out []internal.Product
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var meta productMeta
		if err := dec.Decode(&meta); err != nil {
			return nil, fmt.Errorf("product %q: %w", name, err)
		}
		out = append(out, internal.Product{Name: name, UnitPrice: meta.UnitPrice, UnitOfMeasure: meta.UnitOfMeasure})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadXLSX reads the first sheet that has a recognisable header row.
func LoadXLSX(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []internal.Product
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}
		nameIdx, priceIdx, unitIdx := inferPriceColumns(rows[0])
		if nameIdx < 0 {
			continue
		}
		for _, row := range rows[1:] {
			name := pickCell(row, nameIdx)
			if name == "" {
				continue
			}
			p := internal.Product{Name: name, UnitOfMeasure: pickCell(row, unitIdx)}
			if raw := pickCell(row, priceIdx); raw != "" {
				price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
				if err != nil {
					return nil, fmt.Errorf("sheet %s product %q: bad price %q", sheet, name, raw)
				}
				p.UnitPrice = price
			}
			out = append(out, p)
		}
		break
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no products found in %s", path)
	}
	return New(out), nil
}

func inferPriceColumns(headers []string) (nameIdx, priceIdx, unitIdx int) {
	nameIdx, priceIdx, unitIdx = -1, -1, -1
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case nameIdx < 0 && (h == "name" || h == "product" || h == "product_name"):
			nameIdx = i
		case priceIdx < 0 && strings.Contains(h, "price"):
			priceIdx = i
		case unitIdx < 0 && strings.Contains(h, "unit"):
			unitIdx = i
		}
	}
	return
}

func pickCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func LoadDiscountRules(path string) ([]internal.DiscountRule, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []internal.DiscountRule
	if err := json.Unmarshal(blob, &rules); err != nil {
		return nil, fmt.Errorf("parse discount rules %s: %w", path, err)
	}
	return rules, nil
}
