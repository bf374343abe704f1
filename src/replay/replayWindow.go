package replay

import (
	"fmt"
	"sort"
	"time"

	"l4e-demo-pipeline/src/resampler"
	"l4e-demo-pipeline/src/timeseries"
)

// replayDurations maps the durations offered by the UI to ISO periods.
var replayDurations = map[string]string{
	"1day":   "P1D",
	"1week":  "P7D",
	"1month": "P30D",
}

// ReplayDurations lists the accepted duration names.
func ReplayDurations() []string {
	names := make([]string, 0, len(replayDurations))
	for name := range replayDurations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Window is the span of historical data replayed, both ends included.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow starts at start and lasts the named duration, minus one second
// so that the end stays inside it.
func NewWindow(start time.Time, name string) (Window, error) {
	iso, ok := replayDurations[name]
	if !ok {
		return Window{}, fmt.Errorf("unknown replay duration %q, expected one of %v", name, ReplayDurations())
	}
	d, err := timeseries.ParseAggregationLevel(iso)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: start.Add(d - time.Second)}, nil
}

// AlignedStart is the first tick of the replay timeline: now truncated to
// the sampling period.
func AlignedStart(now time.Time, rate timeseries.SamplingRate) time.Time {
	return timeseries.Naive(now).Truncate(rate.Period)
}

// Resample cuts the window out of the dataset and brings it to the model's
// sampling rate. Values are carried forward without limit so every tick of
// the replay has a reading.
func Resample(dataset *timeseries.Series, window Window, tags []string, rate timeseries.SamplingRate) (*timeseries.Series, error) {
	slice := dataset.Slice(window.Start, window.End, tags)
	res, err := resampler.Resample(slice, resampler.Options{Rate: rate, GapFillLimit: resampler.Unlimited})
	if err != nil {
		return nil, err
	}
	return res.Series(), nil
}

// Shift moves the series onto a new timeline starting at start, one row
// per sampling period.
func Shift(s *timeseries.Series, start time.Time, rate timeseries.SamplingRate) *timeseries.Series {
	out := timeseries.NewSeries(s.Columns)
	for i, row := range s.Values {
		out.Append(start.Add(time.Duration(i)*rate.Period), row)
	}
	return out
}

// NumInferenceFiles is the number of scheduler runs needed to play the
// timeline back, one per sampling period after the first tick.
func NumInferenceFiles(s *timeseries.Series, rate timeseries.SamplingRate) int {
	if s.Len() < 2 {
		return 0
	}
	span := s.Timestamps[s.Len()-1].Sub(s.Timestamps[0])
	return int(span / rate.Period)
}
