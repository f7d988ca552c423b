package converter

import (
	"fmt"

	"github.com/ginjaninja78/merchant-feed-ingest/internal/types"
)

// RecordSource is a forward-only stream of raw records. Both
// csvparser.StreamingParser and xlsxparser.SheetSource satisfy it.
type RecordSource interface {
	Next() bool
	Record() *types.RawRecord
	Err() error
}

// Batch is the outcome of restructuring a whole feed.
type Batch struct {
	// Clean holds the canonical records of rows without field errors, in
	// input order.
	Clean []*types.CanonicalRecord

	// RowErrors holds one entry per rejected row, in input order.
	RowErrors []types.RowError
}

// Rows returns the number of records read.
func (b Batch) Rows() int {
	return len(b.Clean) + len(b.RowErrors)
}

// FieldErrors returns the total number of field errors.
func (b Batch) FieldErrors() int {
	n := 0
	for _, re := range b.RowErrors {
		n += len(re.Errors)
	}
	return n
}

// Process drains src through the restructurer. Every record ends up in
// exactly one of Batch.Clean or Batch.RowErrors. Only a read error from the
// source stops processing; it is returned with the rows read so far.
func Process(src RecordSource, r *Restructurer) (Batch, error) {
	var batch Batch

	for src.Next() {
		raw := src.Record()

		canonical, errs := r.Restructure(raw)
		if len(errs) > 0 {
			batch.RowErrors = append(batch.RowErrors, types.RowError{
				Line:   raw.Line,
				Record: raw.String(),
				Errors: errs,
			})
			continue
		}

		batch.Clean = append(batch.Clean, canonical)
	}

	if err := src.Err(); err != nil {
		return batch, fmt.Errorf("failed to read feed: %w", err)
	}

	return batch, nil
}
