package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows to Sheet1 of a new workbook and returns its path.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cellRef, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestParseMapping(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Source Column", "Canonical Field", "Notes"},
		{"sku", "merchant_product_id"},
		{},
		{" price ", "max_price_inc_vat", "incl. VAT"},
		{"sku", "merchant_product_id"},
	})

	mapping, err := ParseMapping(path)
	if err != nil {
		t.Fatalf("ParseMapping() error = %v", err)
	}

	want := map[string]string{
		"sku":   "merchant_product_id",
		"price": "max_price_inc_vat",
	}
	if len(mapping) != len(want) {
		t.Fatalf("ParseMapping() = %v, want %v", mapping, want)
	}
	for k, v := range want {
		if mapping[k] != v {
			t.Errorf("mapping[%q] = %q, want %q", k, mapping[k], v)
		}
	}
}

func TestParseMapping_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
	}{
		{
			name: "missing canonical field",
			rows: [][]any{{"Source", "Canonical"}, {"sku", ""}},
		},
		{
			name: "conflicting targets",
			rows: [][]any{{"Source", "Canonical"}, {"sku", "a"}, {"sku", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMapping(writeWorkbook(t, tt.rows)); err == nil {
				t.Error("ParseMapping() expected error")
			}
		})
	}

	if _, err := ParseMapping(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Error("ParseMapping(missing file) expected error")
	}
}

func TestSheetSource(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"sku", "price", "qty"},
		{"A1", "19.99", "3"},
		{},
		{"B2", " 5 "},
		{"C3", "1", "2", "surplus"},
	})

	src, err := NewSheetSource(path)
	if err != nil {
		t.Fatalf("NewSheetSource() error = %v", err)
	}
	defer src.Close()

	if got := src.Headers(); len(got) != 3 || got[0] != "sku" || got[2] != "qty" {
		t.Fatalf("Headers() = %v", got)
	}

	var lines []int
	var skus, prices []string
	for src.Next() {
		rec := src.Record()
		lines = append(lines, rec.Line)
		sku, _ := rec.Get("sku")
		skus = append(skus, sku)
		price, _ := rec.Get("price")
		prices = append(prices, price)

		if extra, ok := rec.Get("(extra column 4)"); ok {
			if extra != "surplus" || rec.Len() != 4 {
				t.Errorf("line %d: extra column = %q, %d columns", rec.Line, extra, rec.Len())
			}
		} else if rec.Len() != 3 {
			t.Errorf("line %d has %d columns, want 3", rec.Line, rec.Len())
		}
	}
	if err := src.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	if len(skus) != 3 || skus[0] != "A1" || skus[1] != "B2" || skus[2] != "C3" {
		t.Errorf("skus = %v, want [A1 B2 C3]", skus)
	}
	if len(lines) != 3 || lines[0] != 2 || lines[1] != 4 || lines[2] != 5 {
		t.Errorf("lines = %v, want [2 4 5]", lines)
	}
	if len(prices) == 3 && prices[1] != " 5 " {
		t.Errorf("price = %q, want untrimmed %q", prices[1], " 5 ")
	}
}

func TestSheetSource_EmptySheet(t *testing.T) {
	src, err := NewSheetSource(writeWorkbook(t, nil))
	if err != nil {
		t.Fatalf("NewSheetSource() error = %v", err)
	}
	defer src.Close()

	if src.Next() {
		t.Error("Next() = true on an empty sheet")
	}
	if err := src.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
	if len(src.Headers()) != 0 {
		t.Errorf("Headers() = %v, want none", src.Headers())
	}
}

func TestSheetSource_MissingFile(t *testing.T) {
	if _, err := NewSheetSource(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Error("NewSheetSource() expected error")
	}
}
