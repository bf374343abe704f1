package reconstruct

import (
	"strconv"
	"time"

	"l4e-demo-pipeline/src/timeseries"
)

const (
	AnomalyColumn = "anomaly"
	ModelColumn   = "model"
)

// AnomaliesTable renders the dense labels keyed by unix timestamp.
func AnomaliesTable(labels *LabelSeries, model string) *timeseries.Table {
	return seriesTable(labels.Timestamps, labels.Labels, model)
}

// DailyRateTable renders the per-period anomaly counts.
func DailyRateTable(daily *AggregateSeries, model string) *timeseries.Table {
	return seriesTable(daily.Periods, daily.Values, model)
}

// SensorContributionTable renders one column per tag, or nil when there
// is no contribution table.
func SensorContributionTable(contribution *ContributionTable, model string) *timeseries.Table {
	if contribution == nil {
		return nil
	}

	header := make([]string, 0, len(contribution.Tags)+2)
	header = append(header, timeseries.TimestampColumn)
	header = append(header, contribution.Tags...)
	header = append(header, ModelColumn)

	table := newResultTable(header)
	for i, p := range contribution.Periods {
		row := make([]string, 0, len(header))
		row = append(row, unixCell(p))
		for _, v := range contribution.Values[i] {
			row = append(row, timeseries.FormatFloat(v))
		}
		row = append(row, model)
		table.Rows = append(table.Rows, row)
	}
	return table
}

func seriesTable(index []time.Time, values []float64, model string) *timeseries.Table {
	table := newResultTable([]string{timeseries.TimestampColumn, AnomalyColumn, ModelColumn})
	for i, ts := range index {
		table.Rows = append(table.Rows, []string{unixCell(ts), timeseries.FormatFloat(values[i]), model})
	}
	return table
}

func newResultTable(header []string) *timeseries.Table {
	return &timeseries.Table{
		Header:     header,
		FieldTypes: timeseries.StringFieldsExcept(header, timeseries.TimestampColumn),
	}
}

func unixCell(t time.Time) string {
	return strconv.FormatInt(timeseries.UnixSeconds(t), 10)
}
