package timeseries

import (
	"fmt"
	"strings"
)

// TimestampColumn is the name given to the timestamp column in every output.
const TimestampColumn = "timestamp"

// Schema describes a raw CSV header: the first column holds timestamps,
// whatever it is called, and every other column holds sensor values.
type Schema struct {
	TimestampColumn string
	Columns         []string
}

// DetectSchema validates a CSV header and splits it into the timestamp
// column and the sensor columns.
func DetectSchema(header []string) (Schema, error) {
	if len(header) == 0 {
		return Schema{}, ErrEmptyHeader
	}

	seen := make(map[string]struct{}, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			return Schema{}, fmt.Errorf("column %d has no name: %w", i, ErrEmptyHeader)
		}
		if _, ok := seen[name]; ok {
			return Schema{}, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		seen[name] = struct{}{}
		names[i] = name
	}

	return Schema{
		TimestampColumn: names[0],
		Columns:         names[1:],
	}, nil
}
