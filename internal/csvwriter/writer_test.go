package csvwriter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
	"github.com/shopspring/decimal"
)

func record(kv ...any) *types.CanonicalRecord {
	rec := types.NewCanonicalRecord()
	for i := 0; i < len(kv); i += 2 {
		rec.Set(kv[i].(string), kv[i+1])
	}
	return rec
}

func TestWrite(t *testing.T) {
	records := []*types.CanonicalRecord{
		record("merchant_product_id", "A1", "max_price_inc_vat", decimal.RequireFromString("19.90"), "multiply_merchant_id", types.IntOf(276)),
		record("merchant_product_id", "B, 2", "multiply_merchant_id", types.NullInt{}),
	}

	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	want := [][]string{
		{"merchant_product_id", "max_price_inc_vat", "multiply_merchant_id"},
		{"A1", "19.90", "276"},
		{"B, 2", "", ""},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestWrite_UnexpectedField(t *testing.T) {
	records := []*types.CanonicalRecord{
		record("a", "1"),
		record("a", "2", "b", "3"),
	}

	var buf bytes.Buffer
	err := Write(&buf, records)
	if !errors.Is(err, ErrUnexpectedField) {
		t.Fatalf("Write() error = %v, want ErrUnexpectedField", err)
	}
	if buf.Len() != 0 {
		t.Errorf("partial output written: %q", buf.String())
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "empty.csv")
	written, err := WriteFile(path, nil)
	if err != nil || written {
		t.Fatalf("WriteFile(nil) = %v, %v", written, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file created for zero records")
	}

	path = filepath.Join(dir, "bad.csv")
	if _, err := WriteFile(path, []*types.CanonicalRecord{record("a", "1"), record("z", "2")}); !errors.Is(err, ErrUnexpectedField) {
		t.Fatalf("WriteFile() error = %v, want ErrUnexpectedField", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file created for rejected records")
	}

	path = filepath.Join(dir, "out.csv")
	written, err = WriteFile(path, []*types.CanonicalRecord{record("name", "Tea")})
	if err != nil || !written {
		t.Fatalf("WriteFile() = %v, %v", written, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "name\nTea\n" {
		t.Errorf("contents = %q", data)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{decimal.RequireFromString("5.00"), "5.00"},
		{decimal.RequireFromString("1e3"), "1000"},
		{types.IntOf(-3), "-3"},
		{types.NullInt{}, ""},
		{42, "42"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
