package reconstruct

import (
	"time"
)

// AggregateSeries holds one value per aggregation period.
type AggregateSeries struct {
	Periods []time.Time
	Values  []float64
}

// Len is the number of periods.
func (a *AggregateSeries) Len() int {
	return len(a.Periods)
}

// aggregationIndex lists every period between start and end, both ends
// included.
func aggregationIndex(start, end time.Time, aggregation time.Duration) []time.Time {
	first := start.Truncate(aggregation)
	last := end.Truncate(aggregation)
	var index []time.Time
	for p := first; !p.After(last); p = p.Add(aggregation) {
		index = append(index, p)
	}
	return index
}

func periodSlots(periods []time.Time) map[int64]int {
	slots := make(map[int64]int, len(periods))
	for i, p := range periods {
		slots[p.UnixNano()] = i
	}
	return slots
}

// DailyRate sums the labels falling in each aggregation period. Every
// period of the window is present, with 0 when nothing was flagged, and
// the window stretches to the last tick so that no label is left out. The
// value is a count of ticks, so it scales with the sampling rate.
func DailyRate(labels *LabelSeries, start, end time.Time, aggregation time.Duration) *AggregateSeries {
	if n := labels.Len(); n > 0 && labels.Timestamps[n-1].After(end) {
		end = labels.Timestamps[n-1]
	}
	periods := aggregationIndex(start, end, aggregation)
	slots := periodSlots(periods)

	values := make([]float64, len(periods))
	for i, ts := range labels.Timestamps {
		if slot, ok := slots[ts.Truncate(aggregation).UnixNano()]; ok {
			values[slot] += labels.Labels[i]
		}
	}

	return &AggregateSeries{Periods: periods, Values: values}
}
