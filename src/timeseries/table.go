package timeseries

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// AttributeType is the key-value store type a column is ingested as.
type AttributeType string

const (
	String AttributeType = "S"
	Number AttributeType = "N"
)

// FieldTypes maps a column name to its ingestion type.
type FieldTypes map[string]AttributeType

// Table is a rendered output: a header, string cells and the field types
// the ingestion step needs to write it.
type Table struct {
	Header     []string
	Rows       [][]string
	FieldTypes FieldTypes
}

// Len is the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns every cell of the named column.
func (t *Table) Column(name string) []string {
	pos := -1
	for i, h := range t.Header {
		if h == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if pos < len(row) {
			out[i] = row[pos]
		}
	}
	return out
}

// WriteCSV writes the header and rows, comma delimited, LF line endings.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// Bytes renders the table as CSV.
func (t *Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadTable reads any CSV with a header row as string cells. Blank lines
// are skipped. Field types are left empty.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	table := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", table.Len()+1, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// StringFieldsExcept types every column as String except the listed
// numeric ones.
func StringFieldsExcept(header []string, numeric ...string) FieldTypes {
	fields := make(FieldTypes, len(header))
	for _, h := range header {
		fields[h] = String
	}
	for _, n := range numeric {
		fields[n] = Number
	}
	return fields
}

// FormatFloat writes v in its shortest form, keeping a trailing ".0" on
// integral values. Missing values are written as empty cells.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || strings.ContainsAny(s, ".eE") {
		return s
	}
	return s + ".0"
}
