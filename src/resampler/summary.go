package resampler

import (
	"time"

	"l4e-demo-pipeline/src/timeseries"
)

const (
	// SummaryRows is how many rows are taken from each end of the raw data.
	SummaryRows = 20

	summaryLabel = "summary"
)

// Summary renders the first and last rows of the raw series, in time
// order, for preview. A row shared by head and tail appears once.
func Summary(raw *timeseries.Series, asset string, rows int) *timeseries.Table {
	sorted := &timeseries.Series{
		Columns:    raw.Columns,
		Timestamps: append([]time.Time(nil), raw.Timestamps...),
		Values:     append([][]float64(nil), raw.Values...),
	}
	sorted.Sort()

	n := sorted.Len()
	head := min(rows, n)
	tailStart := max(n-rows, head)

	table := newPreparedTable(raw.Columns)
	for i := 0; i < head; i++ {
		table.Rows = append(table.Rows, preparedRow(sorted.Timestamps[i], asset, summaryLabel, sorted.Values[i]))
	}
	for i := tailStart; i < n; i++ {
		table.Rows = append(table.Rows, preparedRow(sorted.Timestamps[i], asset, summaryLabel, sorted.Values[i]))
	}
	return table
}
