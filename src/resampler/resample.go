package resampler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/utils"
)

// Unlimited disables the gap-fill limit.
const Unlimited = -1

// ErrSpanTooLong is returned when the readings are further apart than a
// time.Duration can hold.
var ErrSpanTooLong = errors.New("resample: time span of the data is too long")

// Options controls the regular grid.
type Options struct {
	Rate timeseries.SamplingRate
	// GapFillLimit is the longest run of empty buckets a column is
	// forward-filled across. Unlimited carries values forever.
	GapFillLimit int
	// SummaryRows is taken from each end of the raw data for the summary.
	SummaryRows int
}

// DefaultOptions is the production setting: hourly buckets, at most one
// day of forward-fill.
func DefaultOptions() Options {
	return Options{Rate: timeseries.Hourly, GapFillLimit: 24, SummaryRows: SummaryRows}
}

// Result is the resampled grid, dropped buckets included.
type Result struct {
	Columns []string
	Rate    timeseries.SamplingRate
	Buckets []Bucket
}

// Kept returns the buckets that make it to the output.
func (r *Result) Kept() []Bucket {
	out := make([]Bucket, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		if !b.Dropped() {
			out = append(out, b)
		}
	}
	return out
}

// DroppedStarts lists the start of every dropped bucket.
func (r *Result) DroppedStarts() []time.Time {
	var out []time.Time
	for _, b := range r.Buckets {
		if b.Dropped() {
			out = append(out, b.Start)
		}
	}
	return out
}

// Series returns the kept buckets as a series.
func (r *Result) Series() *timeseries.Series {
	s := timeseries.NewSeries(r.Columns)
	for _, b := range r.Kept() {
		s.Append(b.Start, b.Values)
	}
	return s
}

// Resample averages raw readings onto a regular grid, forward-fills empty
// buckets up to the gap-fill limit and zero-fills what is left. The input
// is not modified.
func Resample(raw *timeseries.Series, opts Options) (*Result, error) {
	if opts.Rate.Period <= 0 {
		return nil, errors.New("resample: sampling period must be positive")
	}

	res := &Result{Columns: append([]string(nil), raw.Columns...), Rate: opts.Rate}
	if raw.Len() == 0 {
		return res, nil
	}

	sorted := &timeseries.Series{
		Columns:    raw.Columns,
		Timestamps: append([]time.Time(nil), raw.Timestamps...),
		Values:     append([][]float64(nil), raw.Values...),
	}
	sorted.Sort()

	period := opts.Rate.Period
	first := sorted.Timestamps[0].Truncate(period)
	last := sorted.Timestamps[sorted.Len()-1].Truncate(period)
	span := last.Sub(first)
	if !first.Add(span).Equal(last) {
		return nil, fmt.Errorf("%w: %s to %s", ErrSpanTooLong,
			timeseries.FormatTimestamp(first), timeseries.FormatTimestamp(last))
	}
	n := int(span/period) + 1

	samples := make([][][]float64, n)
	for i := range samples {
		samples[i] = make([][]float64, len(res.Columns))
	}
	for i, ts := range sorted.Timestamps {
		slot := int(ts.Truncate(period).Sub(first) / period)
		for c, v := range sorted.Values[i] {
			if !timeseries.IsMissing(v) {
				samples[slot][c] = append(samples[slot][c], v)
			}
		}
	}

	res.Buckets = make([]Bucket, n)
	for i := range res.Buckets {
		res.Buckets[i] = Bucket{
			Start:  first.Add(time.Duration(i) * period),
			Values: make([]float64, len(res.Columns)),
			States: make([]FillState, len(res.Columns)),
		}
	}

	for c := range res.Columns {
		fillColumn(res.Buckets, samples, c, opts.GapFillLimit)
	}

	for i := range res.Buckets {
		classify(&res.Buckets[i])
	}

	return res, nil
}

// fillColumn assigns the value and state of column c in every bucket.
func fillColumn(buckets []Bucket, samples [][][]float64, c, limit int) {
	var (
		last float64
		seen bool
		run  int
	)
	for i := range buckets {
		b := &buckets[i]
		switch {
		case len(samples[i][c]) > 0:
			last = utils.Average(samples[i][c])
			seen = true
			run = 0
			b.Values[c], b.States[c] = last, Known
		case !seen:
			b.Values[c], b.States[c] = 0, ZeroFilled
		default:
			run++
			if limit == Unlimited || run <= limit {
				b.Values[c], b.States[c] = last, ForwardFilled
			} else {
				b.Values[c], b.States[c] = math.NaN(), Dropped
			}
		}
	}
}

// classify settles the bucket: either it has something real or carried
// and its dropped cells become zeros, or the whole bucket is dropped.
func classify(b *Bucket) {
	if keep(b.States) {
		for c, s := range b.States {
			if s == Dropped {
				b.Values[c], b.States[c] = 0, ZeroFilled
			}
		}
		return
	}
	for c := range b.States {
		b.Values[c], b.States[c] = math.NaN(), Dropped
	}
}
