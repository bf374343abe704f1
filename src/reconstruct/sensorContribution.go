package reconstruct

import (
	"time"

	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/utils"
)

// ContributionTable holds the mean contribution of each tag per
// aggregation period.
type ContributionTable struct {
	Periods []time.Time
	Tags    []string
	Values  [][]float64
}

// ExpandResults builds one tick per sampling period across every range
// that carries diagnostics, with the tag's contribution on each tick. A tag
// the model did not report for a range is missing on that range's ticks.
// Ticks of all ranges are concatenated in range order. It returns nil when
// no range has diagnostics.
func ExpandResults(ranges []AnomalyRange, tags []string, asset string, rate timeseries.SamplingRate) *timeseries.Series {
	var expanded *timeseries.Series
	for _, r := range ranges {
		if len(r.Diagnostics) == 0 {
			continue
		}
		if expanded == nil {
			expanded = timeseries.NewSeries(tags)
		}

		row := make([]float64, len(tags))
		for i, tag := range tags {
			v, ok := r.Diagnostics[DiagnosticKey{Asset: asset, Tag: tag}]
			if !ok {
				v = nan
			}
			row[i] = v
		}

		for ts := r.Start; !ts.After(r.End); ts = ts.Add(rate.Period) {
			expanded.Append(ts, row)
		}
	}
	return expanded
}

// BuildSensorContribution averages the expanded diagnostics per
// aggregation period and aligns them on periods. Periods without data are
// 0.0 for every tag. It returns nil when no range has diagnostics.
func BuildSensorContribution(ranges []AnomalyRange, tags []string, asset string, rate timeseries.SamplingRate, periods []time.Time, aggregation time.Duration) *ContributionTable {
	expanded := ExpandResults(ranges, tags, asset, rate)
	if expanded == nil {
		return nil
	}

	slots := periodSlots(periods)
	cells := make([][][]float64, len(periods))
	for i := range cells {
		cells[i] = make([][]float64, len(tags))
	}
	for i, ts := range expanded.Timestamps {
		slot, ok := slots[ts.Truncate(aggregation).UnixNano()]
		if !ok {
			continue
		}
		for c, v := range expanded.Values[i] {
			cells[slot][c] = append(cells[slot][c], v)
		}
	}

	table := &ContributionTable{
		Periods: append([]time.Time(nil), periods...),
		Tags:    append([]string(nil), tags...),
		Values:  make([][]float64, len(periods)),
	}
	for p := range periods {
		row := make([]float64, len(tags))
		for c := range tags {
			mean := utils.AverageObserved(cells[p][c])
			if timeseries.IsMissing(mean) {
				mean = 0.0
			}
			row[c] = mean
		}
		table.Values[p] = row
	}
	return table
}
