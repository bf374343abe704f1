package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadCSV parses a raw sensor CSV: a header row, a timestamp in the first
// column and numeric sensor values in the others. Empty cells are missing.
// Rows come back in source order.
func ReadCSV(r io.Reader) (*Series, Schema, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, Schema{}, ErrEmptyHeader
	}
	if err != nil {
		return nil, Schema{}, fmt.Errorf("read csv header: %w", err)
	}

	schema, err := DetectSchema(header)
	if err != nil {
		return nil, Schema{}, err
	}

	series := NewSeries(schema.Columns)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Schema{}, fmt.Errorf("read csv row %d: %w", line, err)
		}
		line++

		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		ts, err := ParseTimestamp(record[0])
		if err != nil {
			return nil, Schema{}, fmt.Errorf("row %d, column %q: %w", line, schema.TimestampColumn, err)
		}

		row := make([]float64, len(schema.Columns))
		for i := range row {
			cell := ""
			if i+1 < len(record) {
				cell = record[i+1]
			}
			v, err := parseValue(cell)
			if err != nil {
				return nil, Schema{}, fmt.Errorf("row %d, column %q: %w", line, schema.Columns[i], err)
			}
			row[i] = v
		}
		series.Append(ts, row)
	}

	return series, schema, nil
}

func parseValue(cell string) (float64, error) {
	v := strings.TrimSpace(cell)
	switch strings.ToLower(v) {
	case "", "nan", "null":
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonNumericValue, cell)
	}
	return f, nil
}
