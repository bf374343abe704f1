package lookout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/relvacode/iso8601"

	"l4e-demo-pipeline/src/reconstruct"
	"l4e-demo-pipeline/src/timeseries"
)

const datetimeType = "DATETIME"

// ModelDescription is the part of a trained model's description the
// pipeline works from.
type ModelDescription struct {
	ModelName             string
	DatasetName           string
	Status                string
	TargetSamplingRate    string
	TrainingDataStartTime time.Time
	EvaluationDataEndTime time.Time
	Schema                Schema
	ModelMetrics          ModelMetrics
}

type Schema struct {
	Components []Component `json:"Components"`
}

type Component struct {
	ComponentName string   `json:"ComponentName"`
	Columns       []Column `json:"Columns"`
}

type Column struct {
	Name string `json:"Name"`
	Type string `json:"Type"`
}

// Tags lists the sensor columns of the first component, skipping the
// DATETIME column.
func (s Schema) Tags() []string {
	if len(s.Components) == 0 {
		return nil
	}
	var tags []string
	for _, c := range s.Components[0].Columns {
		if c.Type != datetimeType {
			tags = append(tags, c.Name)
		}
	}
	return tags
}

type ModelMetrics struct {
	PredictedRanges []PredictedRange `json:"predicted_ranges"`
}

type PredictedRange struct {
	Start       string       `json:"start"`
	End         string       `json:"end"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

type Diagnostic struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Ranges converts the predicted ranges, resolving diagnostic names into
// structured keys.
func (m ModelMetrics) Ranges() ([]reconstruct.AnomalyRange, error) {
	ranges := make([]reconstruct.AnomalyRange, 0, len(m.PredictedRanges))
	for i, pr := range m.PredictedRanges {
		start, err := timeseries.ParseTimestamp(pr.Start)
		if err != nil {
			return nil, fmt.Errorf("predicted range %d start: %w", i, err)
		}
		end, err := timeseries.ParseTimestamp(pr.End)
		if err != nil {
			return nil, fmt.Errorf("predicted range %d end: %w", i, err)
		}

		r := reconstruct.AnomalyRange{Start: start, End: end}
		if len(pr.Diagnostics) > 0 {
			r.Diagnostics = make(reconstruct.Diagnostics, len(pr.Diagnostics))
			for _, d := range pr.Diagnostics {
				r.Diagnostics[reconstruct.ParseDiagnosticKey(d.Name)] = d.Value
			}
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

type describeModelJSON struct {
	ModelName                      string          `json:"ModelName"`
	DatasetName                    string          `json:"DatasetName"`
	Status                         string          `json:"Status"`
	TrainingDataStartTime          json.RawMessage `json:"TrainingDataStartTime"`
	EvaluationDataEndTime          json.RawMessage `json:"EvaluationDataEndTime"`
	Schema                         json.RawMessage `json:"Schema"`
	ModelMetrics                   json.RawMessage `json:"ModelMetrics"`
	DataPreProcessingConfiguration struct {
		TargetSamplingRate string `json:"TargetSamplingRate"`
	} `json:"DataPreProcessingConfiguration"`
}

// ParseModelDescription reads a model description as returned by the model
// service. Schema and ModelMetrics may be JSON objects or JSON documents
// embedded in strings; times may be ISO-8601 strings or epoch seconds.
func ParseModelDescription(data []byte) (*ModelDescription, error) {
	var raw describeModelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse model description: %w", err)
	}

	desc := &ModelDescription{
		ModelName:          raw.ModelName,
		DatasetName:        raw.DatasetName,
		Status:             raw.Status,
		TargetSamplingRate: raw.DataPreProcessingConfiguration.TargetSamplingRate,
	}

	var err error
	if desc.TrainingDataStartTime, err = parseTime(raw.TrainingDataStartTime); err != nil {
		return nil, fmt.Errorf("TrainingDataStartTime: %w", err)
	}
	if desc.EvaluationDataEndTime, err = parseTime(raw.EvaluationDataEndTime); err != nil {
		return nil, fmt.Errorf("EvaluationDataEndTime: %w", err)
	}
	if err := decodeEmbedded(raw.Schema, &desc.Schema); err != nil {
		return nil, fmt.Errorf("Schema: %w", err)
	}
	if err := decodeEmbedded(raw.ModelMetrics, &desc.ModelMetrics); err != nil {
		return nil, fmt.Errorf("ModelMetrics: %w", err)
	}

	return desc, nil
}

// decodeEmbedded decodes v from either a JSON value or a string holding one.
func decodeEmbedded(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var embedded string
		if err := json.Unmarshal(raw, &embedded); err != nil {
			return err
		}
		if embedded == "" {
			return nil
		}
		raw = []byte(embedded)
	}
	return json.Unmarshal(raw, v)
}

func parseTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		t, err := iso8601.ParseString(s)
		if err != nil {
			return timeseries.ParseTimestamp(s)
		}
		return timeseries.Naive(t), nil
	}

	var epoch float64
	if err := json.Unmarshal(raw, &epoch); err != nil {
		return time.Time{}, err
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * float64(time.Second))
	return timeseries.Naive(time.Unix(sec, nsec)), nil
}
