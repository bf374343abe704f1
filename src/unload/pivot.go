package unload

import (
	"sort"
	"time"

	"l4e-demo-pipeline/src/timeseries"
)

type cellKey struct {
	ts   time.Time
	name string
}

// Pivot turns narrow measures into one row per timestamp and one column
// per measure name. When a (timestamp, measure) pair repeats, the last
// one wins. Cells a timestamp has no measure for are left empty.
func Pivot(measures []Measure) *timeseries.Table {
	cells := make(map[cellKey]string, len(measures))
	stamps := map[time.Time]bool{}
	names := map[string]bool{}
	for _, m := range measures {
		ts := timeseries.Naive(m.Timestamp)
		cells[cellKey{ts, m.Name}] = m.Value
		stamps[ts] = true
		names[m.Name] = true
	}

	columns := make([]string, 0, len(names))
	for n := range names {
		columns = append(columns, n)
	}
	sort.Strings(columns)

	index := make([]time.Time, 0, len(stamps))
	for ts := range stamps {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	header := append([]string{timeseries.TimestampColumn}, columns...)
	table := &timeseries.Table{
		Header:     header,
		FieldTypes: timeseries.StringFieldsExcept(header, columns...),
	}
	for _, ts := range index {
		row := make([]string, 0, len(header))
		row = append(row, timeseries.FormatTimestamp(ts))
		for _, name := range columns {
			row = append(row, cells[cellKey{ts, name}])
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
