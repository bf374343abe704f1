package inference

import (
	"fmt"

	"l4e-demo-pipeline/src/resampler"
	"l4e-demo-pipeline/src/timeseries"
)

// RawSamplingRate labels rows that were stored as received.
const RawSamplingRate = "raw"

// InputTable reshapes an inference input file into the prepared dataset
// layout so live rows land next to the hourly ones. Sensor cells are kept
// as written.
func InputTable(in *timeseries.Table, asset string) (*timeseries.Table, error) {
	if len(in.Header) == 0 {
		return nil, timeseries.ErrEmptyHeader
	}

	header := append([]string{
		timeseries.TimestampColumn,
		resampler.UnixTimestampColumn,
		resampler.AssetColumn,
		resampler.SamplingRateColumn,
	}, in.Header[1:]...)

	out := &timeseries.Table{
		Header:     header,
		FieldTypes: timeseries.StringFieldsExcept(header, resampler.UnixTimestampColumn),
	}
	for i, row := range in.Rows {
		if len(row) == 0 {
			continue
		}
		ts, err := timeseries.ParseTimestamp(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		cells := make([]string, 0, len(header))
		cells = append(cells,
			row[0],
			timeseries.FormatFloat(float64(timeseries.UnixSeconds(ts))),
			asset,
			RawSamplingRate,
		)
		out.Rows = append(out.Rows, append(cells, row[1:]...))
	}
	return out, nil
}
