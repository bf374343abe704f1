package timeseries

import (
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// SamplingRate is one of the fixed sampling intervals supported by the
// model service.
type SamplingRate struct {
	Code      string // ISO-8601 duration used by the model service, e.g. PT5M
	Frequency string // short form, e.g. 5min
	Period    time.Duration
}

// Seconds returns the sampling period in whole seconds.
func (s SamplingRate) Seconds() int64 {
	return int64(s.Period / time.Second)
}

func (s SamplingRate) String() string {
	return s.Frequency
}

var samplingRateCodes = []struct {
	code      string
	frequency string
}{
	{"PT1S", "1s"},
	{"PT5S", "5s"},
	{"PT10S", "10s"},
	{"PT15S", "15s"},
	{"PT30S", "30s"},
	{"PT1M", "1min"},
	{"PT5M", "5min"},
	{"PT10M", "10min"},
	{"PT15M", "15min"},
	{"PT30M", "30min"},
	{"PT1H", "1h"},
}

var samplingRates = buildSamplingRates()

func buildSamplingRates() map[string]SamplingRate {
	rates := make(map[string]SamplingRate, 2*len(samplingRateCodes))
	for _, c := range samplingRateCodes {
		d, err := duration.Parse(c.code)
		if err != nil {
			panic(fmt.Sprintf("sampling rate table: %s: %v", c.code, err))
		}
		rate := SamplingRate{Code: c.code, Frequency: c.frequency, Period: d.ToTimeDuration()}
		rates[c.code] = rate
		rates[c.frequency] = rate
	}
	return rates
}

// Hourly is the sampling rate of prepared datasets.
var Hourly = MustSamplingRate("PT1H")

// LookupSamplingRate resolves either an ISO code (PT5M) or a short
// frequency (5min). Anything else is ErrUnknownSamplingRate.
func LookupSamplingRate(code string) (SamplingRate, error) {
	key := strings.TrimSpace(code)
	if rate, ok := samplingRates[key]; ok {
		return rate, nil
	}
	if rate, ok := samplingRates[strings.ToUpper(key)]; ok {
		return rate, nil
	}
	return SamplingRate{}, fmt.Errorf("%w: %q", ErrUnknownSamplingRate, code)
}

// MustSamplingRate is LookupSamplingRate for compile-time constants.
func MustSamplingRate(code string) SamplingRate {
	rate, err := LookupSamplingRate(code)
	if err != nil {
		panic(err)
	}
	return rate
}

// ParseAggregationLevel parses an aggregation period such as P1D or PT1H.
func ParseAggregationLevel(level string) (time.Duration, error) {
	d, err := duration.Parse(strings.ToUpper(strings.TrimSpace(level)))
	if err != nil {
		return 0, fmt.Errorf("invalid aggregation level %q: %w", level, err)
	}
	period := d.ToTimeDuration()
	if period <= 0 {
		return 0, fmt.Errorf("invalid aggregation level %q: period must be positive", level)
	}
	return period, nil
}
