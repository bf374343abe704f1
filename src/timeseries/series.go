package timeseries

import (
	"math"
	"sort"
	"time"
)

// Series is a table of sensor readings indexed by timestamp. Values holds
// one row per timestamp and one cell per column; NaN marks a missing cell.
type Series struct {
	Columns    []string
	Timestamps []time.Time
	Values     [][]float64
}

// NewSeries returns an empty series with the given sensor columns.
func NewSeries(columns []string) *Series {
	return &Series{Columns: append([]string(nil), columns...)}
}

// Len is the number of rows.
func (s *Series) Len() int {
	return len(s.Timestamps)
}

// Append adds a row. The row is copied.
func (s *Series) Append(ts time.Time, row []float64) {
	s.Timestamps = append(s.Timestamps, ts)
	s.Values = append(s.Values, append([]float64(nil), row...))
}

// Sort orders rows by timestamp, keeping the source order of equal timestamps.
func (s *Series) Sort() {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Timestamps[idx[a]].Before(s.Timestamps[idx[b]])
	})

	timestamps := make([]time.Time, len(idx))
	values := make([][]float64, len(idx))
	for to, from := range idx {
		timestamps[to] = s.Timestamps[from]
		values[to] = s.Values[from]
	}
	s.Timestamps = timestamps
	s.Values = values
}

// Slice returns rows with from <= timestamp <= to, restricted to columns.
// Unknown columns come back fully missing.
func (s *Series) Slice(from, to time.Time, columns []string) *Series {
	pos := make([]int, len(columns))
	for i, c := range columns {
		pos[i] = s.ColumnIndex(c)
	}

	out := NewSeries(columns)
	for i, ts := range s.Timestamps {
		if ts.Before(from) || ts.After(to) {
			continue
		}
		row := make([]float64, len(columns))
		for j, p := range pos {
			if p < 0 {
				row[j] = math.NaN()
				continue
			}
			row[j] = s.Values[i][p]
		}
		out.Append(ts, row)
	}
	return out
}

// ColumnIndex returns the position of name, or -1.
func (s *Series) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// IsMissing reports whether v marks a missing cell.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Table renders the series under a normalized header, timestamp first.
func (s *Series) Table() *Table {
	header := append([]string{TimestampColumn}, s.Columns...)
	table := &Table{Header: header, FieldTypes: StringFieldsExcept(header)}
	for i, ts := range s.Timestamps {
		row := make([]string, 0, len(header))
		row = append(row, FormatTimestamp(ts))
		for _, v := range s.Values[i] {
			row = append(row, FormatFloat(v))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
