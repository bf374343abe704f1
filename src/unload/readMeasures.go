package unload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"l4e-demo-pipeline/src/timeseries"
)

const (
	MeasureNameColumn  = "measure_name"
	MeasureValueColumn = "measure_value"

	// julianUnixEpoch is the Julian day number of 1970-01-01.
	julianUnixEpoch = 2440588
	readBatch       = 256
)

var ErrMissingColumn = errors.New("unload: column missing from export")

// Measure is one narrow row of a Timestream export: a sensor reading
// identified by its time and measure name.
type Measure struct {
	Timestamp time.Time
	Name      string
	Value     string
}

type columns struct {
	timestamp int
	name      int
	value     int
	tsUnit    time.Duration
}

// ReadMeasures decodes the rows of one Parquet file in file order.
// Rows without a time or a measure name are skipped.
func ReadMeasures(data []byte, timestampCol string) ([]Measure, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	cols, err := lookupColumns(f.Schema(), timestampCol)
	if err != nil {
		return nil, err
	}

	var measures []Measure
	for _, rg := range f.RowGroups() {
		if err := readRowGroup(rg, cols, &measures); err != nil {
			return nil, err
		}
	}
	return measures, nil
}

func lookupColumns(schema *parquet.Schema, timestampCol string) (columns, error) {
	var cols columns

	ts, ok := schema.Lookup(timestampCol)
	if !ok {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, timestampCol)
	}
	name, ok := schema.Lookup(MeasureNameColumn)
	if !ok {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, MeasureNameColumn)
	}
	value, ok := schema.Lookup(MeasureValueColumn)
	if !ok {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, MeasureValueColumn)
	}

	cols.timestamp = ts.ColumnIndex
	cols.name = name.ColumnIndex
	cols.value = value.ColumnIndex
	cols.tsUnit = timestampUnit(ts.Node)
	return cols, nil
}

// timestampUnit reads the unit of an annotated integer timestamp column,
// or returns 0 when the column carries no timestamp annotation.
func timestampUnit(node parquet.Node) time.Duration {
	lt := node.Type().LogicalType()
	if lt == nil || lt.Timestamp == nil {
		return 0
	}
	switch unit := lt.Timestamp.Unit; {
	case unit.Millis != nil:
		return time.Millisecond
	case unit.Micros != nil:
		return time.Microsecond
	default:
		return time.Nanosecond
	}
}

func readRowGroup(rg parquet.RowGroup, cols columns, out *[]Measure) error {
	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, readBatch)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			m, ok, convErr := toMeasure(row, cols)
			if convErr != nil {
				return convErr
			}
			if ok {
				*out = append(*out, m)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
}

func toMeasure(row parquet.Row, cols columns) (Measure, bool, error) {
	var m Measure
	var hasTime, hasName bool
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols.timestamp:
			ts, err := timestampValue(v, cols.tsUnit)
			if err != nil {
				return m, false, err
			}
			m.Timestamp = ts
			hasTime = true
		case cols.name:
			m.Name = string(v.ByteArray())
			hasName = m.Name != ""
		case cols.value:
			m.Value = measureValue(v)
		}
	}
	return m, hasTime && hasName, nil
}

func timestampValue(v parquet.Value, unit time.Duration) (time.Time, error) {
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return timeseries.ParseTimestamp(string(v.ByteArray()))
	case parquet.Int96:
		// 8 bytes of nanoseconds within the day, then the Julian day
		i96 := v.Int96()
		nanos := int64(i96[1])<<32 | int64(i96[0])
		day := int64(i96[2])
		return time.Unix((day-julianUnixEpoch)*86400, nanos).UTC(), nil
	case parquet.Int64:
		if unit == 0 {
			return time.Time{}, fmt.Errorf("%w: integer time column without a timestamp unit", timeseries.ErrMalformedTimestamp)
		}
		return time.Unix(0, v.Int64()*int64(unit)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported time column kind %s", timeseries.ErrMalformedTimestamp, v.Kind())
	}
}

// measureValue renders a value the way it will appear in the CSV.
func measureValue(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Double:
		return timeseries.FormatFloat(v.Double())
	case parquet.Float:
		return timeseries.FormatFloat(float64(v.Float()))
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Boolean:
		if v.Boolean() {
			return "1"
		}
		return "0"
	default:
		return string(v.ByteArray())
	}
}
