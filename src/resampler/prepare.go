package resampler

import (
	"time"

	"l4e-demo-pipeline/src/timeseries"
)

const (
	UnixTimestampColumn = "unix_timestamp"
	AssetColumn         = "asset"
	SamplingRateColumn  = "sampling_rate"
)

// Output is everything the preparation step writes for one asset.
type Output struct {
	Hourly  *timeseries.Table
	Summary *timeseries.Table
	Result  *Result
}

// Prepare resamples raw onto the grid described by opts and renders both
// the prepared dataset and its head/tail summary.
func Prepare(raw *timeseries.Series, asset string, opts Options) (*Output, error) {
	res, err := Resample(raw, opts)
	if err != nil {
		return nil, err
	}

	rows := opts.SummaryRows
	if rows <= 0 {
		rows = SummaryRows
	}

	return &Output{
		Hourly:  PreparedTable(res, asset),
		Summary: Summary(raw, asset, rows),
		Result:  res,
	}, nil
}

// PreparedTable renders the kept buckets with their metadata columns.
func PreparedTable(res *Result, asset string) *timeseries.Table {
	table := newPreparedTable(res.Columns)
	for _, b := range res.Kept() {
		table.Rows = append(table.Rows, preparedRow(b.Start, asset, res.Rate.Frequency, b.Values))
	}
	return table
}

func newPreparedTable(columns []string) *timeseries.Table {
	header := append([]string{
		timeseries.TimestampColumn,
		UnixTimestampColumn,
		AssetColumn,
		SamplingRateColumn,
	}, columns...)

	return &timeseries.Table{
		Header:     header,
		FieldTypes: timeseries.StringFieldsExcept(header, UnixTimestampColumn),
	}
}

func preparedRow(ts time.Time, asset, label string, values []float64) []string {
	row := make([]string, 0, 4+len(values))
	row = append(row,
		timeseries.FormatTimestamp(ts),
		timeseries.FormatFloat(float64(timeseries.UnixSeconds(ts))),
		asset,
		label,
	)
	for _, v := range values {
		row = append(row, timeseries.FormatFloat(v))
	}
	return row
}
