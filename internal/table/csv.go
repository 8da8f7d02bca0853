package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// WriteCSV writes a header line and one record per row. Numbers use their
// shortest exact text, timestamps RFC 3339 and missing values an empty field.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	rec := make([]string, len(t.cols))
	for i := 0; i < t.Len(); i++ {
		for j, c := range t.cols {
			rec[j] = csvField(c, i)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvField(c *Column, i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch c.Kind {
	case Numeric:
		return FormatNumber(c.num[i])
	case Temporal:
		return c.ts[i].Format(time.RFC3339Nano)
	default:
		return c.text[i]
	}
}

// EncodeCSV returns the CSV encoding of t. A table without rows yields the
// header line alone.
func EncodeCSV(t *Table) []byte {
	var buf bytes.Buffer
	// bytes.Buffer non falla
	_ = WriteCSV(&buf, t)
	return buf.Bytes()
}

// ReadCSV parses a CSV stream with a header line into a table.
func ReadCSV(r io.Reader, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return Empty(), nil
	}
	names := records[0]
	rows := make([][]any, len(records)-1)
	for i, rec := range records[1:] {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		rows[i] = row
	}
	return FromRows(names, rows, opts)
}

// DecodeCSV parses EncodeCSV output back with the given column kinds.
func DecodeCSV(data []byte, kinds map[string]Kind) (*Table, error) {
	return ReadCSV(bytes.NewReader(data), Options{Kinds: kinds})
}
