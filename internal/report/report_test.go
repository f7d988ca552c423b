package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
)

func sampleErrors() []types.RowError {
	return []types.RowError{
		{
			Line:   3,
			Record: `{"sku":"A1","price":"abc","colour":"red"}`,
			Errors: []types.FieldError{
				{
					SourceColumn:   "price",
					CanonicalField: "max_price_inc_vat",
					Value:          "abc",
					Description:    `could not transform value "abc" to decimal: bad`,
				},
				{
					SourceColumn:   "colour",
					CanonicalField: types.UnmappedField,
					Value:          "red",
					Description:    "no table mapping for this source column (colour)",
				},
			},
		},
		{
			Line:   7,
			Record: `{"sku":"B2","price":"-"}`,
			Errors: []types.FieldError{{SourceColumn: "price", CanonicalField: "max_price_inc_vat", Value: "-", Description: "x"}},
		},
	}
}

func TestRender(t *testing.T) {
	got := Render(sampleErrors())

	want := "AFFECTED PRODUCT (line 3)\n" +
		`{"sku":"A1","price":"abc","colour":"red"}` + "\n" +
		rule + "\nERRORS\n" + rule + "\n" +
		"1. Source Column: price\n" +
		"Canonical Field: max_price_inc_vat\n" +
		"Value: abc\n" +
		`Error: could not transform value "abc" to decimal: bad` + "\n\n" +
		"2. Source Column: colour\n" +
		"Canonical Field: -\n" +
		"Value: red\n" +
		"Error: no table mapping for this source column (colour)\n\n" +
		"\n"

	if !strings.HasPrefix(got, want) {
		t.Errorf("Render() first block =\n%s\nwant\n%s", got, want)
	}
	if n := strings.Count(got, "AFFECTED PRODUCT"); n != 2 {
		t.Errorf("blocks = %d, want 2", n)
	}
	if strings.Index(got, "(line 3)") > strings.Index(got, "(line 7)") {
		t.Error("blocks out of input order")
	}
}

func TestRender_Empty(t *testing.T) {
	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "none.txt")
	written, err := WriteFile(path, nil)
	if err != nil || written {
		t.Fatalf("WriteFile(nil) = %v, %v", written, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("report created for zero row errors")
	}

	path = filepath.Join(dir, "errors.txt")
	written, err = WriteFile(path, sampleErrors())
	if err != nil || !written {
		t.Fatalf("WriteFile() = %v, %v", written, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != Render(sampleErrors()) {
		t.Error("file contents differ from Render()")
	}
}
