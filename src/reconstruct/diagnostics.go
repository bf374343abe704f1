package reconstruct

import (
	"strings"
	"time"
)

// keySeparator joins asset and tag in the model service's diagnostic names.
const keySeparator = `\`

// DiagnosticKey identifies a sensor in the model output.
type DiagnosticKey struct {
	Asset string
	Tag   string
}

// ParseDiagnosticKey splits a model service name of the form asset\tag.
// A name without separator is taken as a bare tag.
func ParseDiagnosticKey(name string) DiagnosticKey {
	asset, tag, ok := strings.Cut(name, keySeparator)
	if !ok {
		return DiagnosticKey{Tag: name}
	}
	return DiagnosticKey{Asset: asset, Tag: tag}
}

// String returns the model service form of the key.
func (k DiagnosticKey) String() string {
	if k.Asset == "" {
		return k.Tag
	}
	return k.Asset + keySeparator + k.Tag
}

// Diagnostics holds the contribution of each sensor to one anomaly.
type Diagnostics map[DiagnosticKey]float64

// AnomalyRange is an interval flagged by the model, with its diagnostics
// when the model reported any.
type AnomalyRange struct {
	Start       time.Time
	End         time.Time
	Diagnostics Diagnostics
}
