package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"l4e-demo-pipeline/src/storage"
	"l4e-demo-pipeline/src/timeseries"
	"l4e-demo-pipeline/src/types"
)

const stampLayout = "20060102150405"

// InputRow is one reading pushed by the replay scheduler.
type InputRow struct {
	Timestamp   time.Time
	Bucket      string
	ModelName   string
	ProjectName string
	UID         string
	Values      map[string]string
}

// ParseInputRow decodes a flat payload. Sensor values are kept as written,
// numbers included.
func ParseInputRow(payload json.RawMessage) (*InputRow, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("parse inference payload: %w", err)
	}

	row := &InputRow{Values: make(map[string]string, len(fields))}
	for name, value := range fields {
		cell := cellText(value)
		switch name {
		case "timestamp":
			ts, err := time.Parse(timeseries.TimeLayout, cell)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", timeseries.ErrMalformedTimestamp, cell)
			}
			row.Timestamp = ts
		case "bucket":
			row.Bucket = cell
		case "modelName":
			row.ModelName = cell
		case "projectName":
			row.ProjectName = cell
		case "uid":
			row.UID = cell
		default:
			row.Values[name] = cell
		}
	}

	if row.Timestamp.IsZero() || row.Bucket == "" || row.ModelName == "" || row.ProjectName == "" {
		return nil, fmt.Errorf("timestamp, bucket, modelName and projectName are required")
	}
	return row, nil
}

// Key is where the scheduler picks the row up.
func (r *InputRow) Key() string {
	return storage.InferenceInputKey(r.UID+"-"+r.ModelName, r.ProjectName, r.Timestamp.Format(stampLayout))
}

// Table renders the row under a timestamp column followed by the sensors
// in name order.
func (r *InputRow) Table() *timeseries.Table {
	tags := make([]string, 0, len(r.Values))
	for tag := range r.Values {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	header := append([]string{timeseries.TimestampColumn}, tags...)
	cells := []string{timeseries.FormatTimestamp(r.Timestamp)}
	for _, tag := range tags {
		cells = append(cells, r.Values[tag])
	}
	return &timeseries.Table{
		Header:     header,
		Rows:       [][]string{cells},
		FieldTypes: timeseries.StringFieldsExcept(header),
	}
}

func cellText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// GenerateInput writes a single reading as an inference input file.
func (h *Handler) GenerateInput(ctx context.Context, payload json.RawMessage) (types.StatusResponse, error) {
	row, err := ParseInputRow(payload)
	if err != nil {
		return types.StatusResponse{}, err
	}

	key := row.Key()
	if err := h.Store.PutTable(ctx, row.Bucket, key, row.Table(), nil); err != nil {
		return types.StatusResponse{}, err
	}
	h.Log.Info("inference input written",
		zap.String("bucket", row.Bucket),
		zap.String("key", key),
		zap.Int("sensors", len(row.Values)),
	)

	return types.StatusResponse{StatusCode: 200}, nil
}
