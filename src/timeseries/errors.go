package timeseries

import "errors"

var (
	// ErrMalformedTimestamp is returned when a timestamp cell cannot be parsed.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrUnknownSamplingRate is returned for a sampling rate outside the supported set.
	ErrUnknownSamplingRate = errors.New("unknown sampling rate")

	// ErrNonNumericValue is returned when a sensor cell is not a number.
	ErrNonNumericValue = errors.New("non-numeric sensor value")

	ErrEmptyHeader     = errors.New("empty csv header")
	ErrDuplicateColumn = errors.New("duplicate column name")
)
