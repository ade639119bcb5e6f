// Package csvfile stores tables as flat CSV files, one file per logical table.
package csvfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"kunden-service/internal/storage"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode reads a header row followed by data rows. Rows may be ragged; the
// typed layer decides what a short row means. A leading UTF-8 BOM, as written
// by spreadsheet tools, is skipped.
func Decode(name string, r io.Reader) (*storage.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	t := &storage.Table{Name: name}
	if len(records) == 0 {
		return t, nil
	}
	t.Header = records[0]
	t.Rows = records[1:]
	return t, nil
}

// Encode writes the header and all rows.
func Encode(w io.Writer, t *storage.Table) error {
	cw := csv.NewWriter(w)
	if len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Marshal encodes t into memory, used for downloads.
func Marshal(t *storage.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
