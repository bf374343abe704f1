package timeseries

import (
	"fmt"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
)

// TimeLayout is how naive timestamps are written to prepared datasets.
const TimeLayout = "2006-01-02 15:04:05"

var naiveLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// zonedLayouts cover offsets after a space-separated time, which the ISO
// parser does not accept.
var zonedLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05 Z07:00",
}

// ParseTimestamp parses a sensor timestamp into a naive UTC time. Values
// carrying a zone are converted to UTC first.
func ParseTimestamp(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedTimestamp)
	}

	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return Naive(t), nil
		}
	}

	t, err := iso8601.ParseString(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, value)
	}

	return Naive(t), nil
}

// Naive drops the zone of t after converting it to UTC.
func Naive(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

// FormatTimestamp writes t with TimeLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimeLayout)
}

// UnixSeconds returns whole seconds since the epoch.
func UnixSeconds(t time.Time) int64 {
	return t.Unix()
}
