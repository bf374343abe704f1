package reconstruct

import (
	"fmt"
	"time"

	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/utils"
)

// LabelSeries is the dense anomaly label of every tick in a window.
type LabelSeries struct {
	Timestamps []time.Time
	Labels     []float64
}

// Len is the number of ticks.
func (l *LabelSeries) Len() int {
	return len(l.Timestamps)
}

// Total is the number of anomalous ticks.
func (l *LabelSeries) Total() float64 {
	return utils.Sum(l.Labels)
}

// ConvertRanges expands anomaly ranges into a label per tick, stepping
// from start by the sampling period until end is reached or passed: a
// window that is not a whole number of periods gets one tick past end.
// Ticks inside any range, bounds included, are 1.0, the rest 0.0. A range
// with start == end covers one full sampling period.
func ConvertRanges(ranges []AnomalyRange, start, end time.Time, rate timeseries.SamplingRate) (*LabelSeries, error) {
	period := rate.Period
	if period <= 0 {
		return nil, fmt.Errorf("convert ranges: %w: %q", timeseries.ErrUnknownSamplingRate, rate.Code)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("convert ranges: window end %s is before start %s", end, start)
	}

	n := ceilDiv(end.Sub(start), period) + 1
	labels := &LabelSeries{
		Timestamps: make([]time.Time, n),
		Labels:     make([]float64, n),
	}
	for i := range labels.Timestamps {
		labels.Timestamps[i] = start.Add(time.Duration(i) * period)
	}

	for _, r := range ranges {
		rangeEnd := r.End
		if r.Start.Equal(rangeEnd) {
			rangeEnd = r.Start.Add(period)
		}
		if rangeEnd.Before(r.Start) {
			continue
		}

		first := max(ceilDiv(r.Start.Sub(start), period), 0)
		last := min(floorDiv(rangeEnd.Sub(start), period), n-1)
		for i := first; i <= last; i++ {
			labels.Labels[i] = 1.0
		}
	}

	return labels, nil
}

func floorDiv(d, period time.Duration) int {
	q := d / period
	if d%period != 0 && d < 0 {
		q--
	}
	return int(q)
}

func ceilDiv(d, period time.Duration) int {
	return -floorDiv(-d, period)
}
