package converter

import (
	"errors"
	"testing"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
)

// sliceSource is an in-memory RecordSource.
type sliceSource struct {
	records []*types.RawRecord
	pos     int
	err     error
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.records) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Record() *types.RawRecord { return s.records[s.pos-1] }

func (s *sliceSource) Err() error { return s.err }

func TestProcess(t *testing.T) {
	r := mustRestructurer(t, skuPriceMapping())
	src := &sliceSource{records: []*types.RawRecord{
		raw(2, "sku", "A1", "price", "19.99"),
		raw(3, "sku", "B2", "price", "oops"),
		raw(4, "sku", "C3", "price", "5"),
		raw(5, "sku", "D4", "colour", "red", "price", "x"),
	}}

	batch, err := Process(src, r)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(batch.Clean) != 2 || len(batch.RowErrors) != 2 || batch.Rows() != 4 {
		t.Fatalf("clean = %d, rowErrors = %d", len(batch.Clean), len(batch.RowErrors))
	}
	if v, _ := batch.Clean[1].Get("merchant_product_id"); v != "C3" {
		t.Errorf("clean order broken: second clean sku = %v", v)
	}

	first := batch.RowErrors[0]
	if first.Line != 3 || first.Record != `{"sku":"B2","price":"oops"}` || len(first.Errors) != 1 {
		t.Errorf("first row error = %+v", first)
	}
	if batch.RowErrors[1].Line != 5 || len(batch.RowErrors[1].Errors) != 2 {
		t.Errorf("second row error = %+v", batch.RowErrors[1])
	}
	if got := batch.FieldErrors(); got != 3 {
		t.Errorf("FieldErrors() = %d, want 3", got)
	}
}

func TestProcess_Empty(t *testing.T) {
	batch, err := Process(&sliceSource{}, mustRestructurer(t, skuPriceMapping()))
	if err != nil || batch.Rows() != 0 {
		t.Errorf("Process(empty) = %+v, %v", batch, err)
	}
}

func TestProcess_SourceError(t *testing.T) {
	readErr := errors.New("disk on fire")
	src := &sliceSource{
		records: []*types.RawRecord{raw(2, "sku", "A1")},
		err:     readErr,
	}

	batch, err := Process(src, mustRestructurer(t, skuPriceMapping()))
	if !errors.Is(err, readErr) {
		t.Fatalf("Process() error = %v, want wrapped read error", err)
	}
	if len(batch.Clean) != 1 {
		t.Errorf("rows read before the error = %d, want 1", len(batch.Clean))
	}
}
