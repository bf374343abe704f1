package inference

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"l4e-demo-pipeline/src/dynamo"
	"l4e-demo-pipeline/src/lookout"
	"l4e-demo-pipeline/src/reconstruct"
	"l4e-demo-pipeline/src/timeseries"
)

const maxLineSize = 10 * 1024 * 1024

type resultLine struct {
	Timestamp    string               `json:"timestamp"`
	Prediction   float64              `json:"prediction"`
	AnomalyScore float64              `json:"anomaly_score"`
	Diagnostics  []lookout.Diagnostic `json:"diagnostics"`
}

// ParseResults reads a JSON-lines inference output. Diagnostics is nil on
// results whose line had no diagnostics field.
func ParseResults(model string, r io.Reader) ([]dynamo.InferenceResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var results []dynamo.InferenceResult
	for line := 1; scanner.Scan(); line++ {
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var l resultLine
		if err := json.Unmarshal(text, &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := resultTimestamp(l.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		res := dynamo.InferenceResult{
			Model:        model,
			Timestamp:    ts,
			Prediction:   l.Prediction,
			AnomalyScore: l.AnomalyScore,
		}
		if l.Diagnostics != nil {
			res.Diagnostics = make(reconstruct.Diagnostics, len(l.Diagnostics))
			for _, d := range l.Diagnostics {
				res.Diagnostics[reconstruct.ParseDiagnosticKey(d.Name)] = d.Value
			}
		}
		results = append(results, res)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read inference results: %w", err)
	}
	return results, nil
}

// resultTimestamp keeps the wall-clock part of an inference timestamp,
// ignoring fractions and zone, and returns it in unix seconds.
func resultTimestamp(value string) (int64, error) {
	if len(value) < len(timeseries.TimeLayout) {
		return 0, fmt.Errorf("%w: %q", timeseries.ErrMalformedTimestamp, value)
	}
	wall := strings.Replace(value[:len(timeseries.TimeLayout)], "T", " ", 1)
	t, err := time.Parse(timeseries.TimeLayout, wall)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", timeseries.ErrMalformedTimestamp, value)
	}
	return t.Unix(), nil
}
