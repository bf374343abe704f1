package reconstruct

import (
	"fmt"
	"math"
	"time"

	"l4e-demo-pipeline/src/timeseries"
)

var nan = math.NaN()

// Daily is the default aggregation period.
const Daily = 24 * time.Hour

// Request is everything needed to rebuild the results of one model.
type Request struct {
	Ranges       []AnomalyRange
	Start        time.Time
	End          time.Time
	Tags         []string
	Asset        string // short asset name used in diagnostic keys
	SamplingRate string // code or frequency from the closed set, e.g. PT5M
	Aggregation  time.Duration
}

// Reconstruction is the rebuilt result set. SensorContribution is nil when
// no range carried diagnostics; callers must skip it rather than emit an
// all-zero table.
type Reconstruction struct {
	Rate               timeseries.SamplingRate
	Anomalies          *LabelSeries
	DailyRate          *AggregateSeries
	SensorContribution *ContributionTable
}

// Reconstruct expands the predicted ranges into a dense label series, sums
// it per aggregation period and averages the diagnostics on the same
// periods.
func Reconstruct(req Request) (*Reconstruction, error) {
	rate, err := timeseries.LookupSamplingRate(req.SamplingRate)
	if err != nil {
		return nil, err
	}
	aggregation := req.Aggregation
	if aggregation == 0 {
		aggregation = Daily
	}
	if aggregation < 0 {
		return nil, fmt.Errorf("reconstruct: negative aggregation period %s", aggregation)
	}

	anomalies, err := ConvertRanges(req.Ranges, req.Start, req.End, rate)
	if err != nil {
		return nil, err
	}

	daily := DailyRate(anomalies, req.Start, req.End, aggregation)

	return &Reconstruction{
		Rate:               rate,
		Anomalies:          anomalies,
		DailyRate:          daily,
		SensorContribution: BuildSensorContribution(req.Ranges, req.Tags, req.Asset, rate, daily.Periods, aggregation),
	}, nil
}
