package storage

import (
	"fmt"
	"strings"
)

// AssetFromKey returns the folder an object sits in, which names the
// asset: raw-datasets/pump1/sensors.csv belongs to pump1.
func AssetFromKey(key string) (string, error) {
	parts := strings.Split(key, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" {
		return "", fmt.Errorf("invalid S3 key format: expected <prefix>/<asset>/<file>, got %q", key)
	}
	return parts[len(parts)-2], nil
}

func PreparedKey(asset string) string {
	return fmt.Sprintf("prepared-datasets/%s/%s_prepared.csv", asset, asset)
}

func PreparedPrefix(asset string) string {
	return fmt.Sprintf("prepared-datasets/%s/", asset)
}

func SummaryKey(asset string) string {
	return fmt.Sprintf("prepared-datasets/%s/%s_summary.csv", asset, asset)
}

func RawKey(asset string) string {
	return fmt.Sprintf("raw-datasets/%s/%s/sensors.csv", asset, asset)
}

func RawPrefix(asset string) string {
	return fmt.Sprintf("raw-datasets/%s/", asset)
}

// ResultKey is where a model result table of an asset is written.
func ResultKey(asset, name string) string {
	return fmt.Sprintf("model-results/%s/%s.csv", asset, name)
}

// PlaceholderName is the empty object that makes a scheduler prefix exist.
const PlaceholderName = "TemporaryFile-CanBeDeleted.tmp"

// InferencePrefix is the input or output folder of a model's scheduler.
func InferencePrefix(model, kind string) string {
	return fmt.Sprintf("inference-data/%s/%s/", model, kind)
}

// InferenceInputKey names an input file by asset and yyyymmddHHMMSS stamp.
func InferenceInputKey(model, asset, stamp string) string {
	return fmt.Sprintf("%s%s-%s.csv", InferencePrefix(model, "input"), asset, stamp)
}

// ReplayKey is the resampled window a replay scheduler reads from.
func ReplayKey(model string) string {
	return fmt.Sprintf("inference-data/%s/inference-input.csv", model)
}

// InferenceOutput locates a scheduler result file:
// inference-data/<model>/output/<execution time>/results.jsonl.
type InferenceOutput struct {
	Model string
	// Stamp is the execution time folder without its zone designator and
	// separators, e.g. 2023-01-01T10:05:00Z becomes 20230101100500.
	Stamp string
}

func ParseInferenceOutputKey(key string) (InferenceOutput, error) {
	parts := strings.Split(key, "/")
	if len(parts) < 4 || parts[1] == "" {
		return InferenceOutput{}, fmt.Errorf("invalid inference output key %q", key)
	}

	folder := parts[len(parts)-2]
	if len(folder) < 2 {
		return InferenceOutput{}, fmt.Errorf("invalid execution folder in inference output key %q", key)
	}
	stamp := strings.NewReplacer("-", "", ":", "", "T", "").Replace(folder[:len(folder)-1])

	return InferenceOutput{Model: parts[1], Stamp: stamp}, nil
}

// InputKey is the input file the scheduler consumed for this output.
func (o InferenceOutput) InputKey(asset string) string {
	return InferenceInputKey(o.Model, asset, o.Stamp)
}
