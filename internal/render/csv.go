// Package render turns stored records into the read-back formats served to
// operators: CSV exports and the admin HTML pages.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/careconnect/intake/internal/domain"
)

// CSVContentType is served with every export.
const CSVContentType = "text/csv"

// CSV writes a header row of column names followed by one line per record,
// in the order given. No records produce an empty body, not even a header.
func CSV(schema domain.Schema, recs []domain.Record) ([]byte, error) {
	if len(recs) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.Write(schema.Columns()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range recs {
		if err := w.Write(rec.Row(schema)); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", rec.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
