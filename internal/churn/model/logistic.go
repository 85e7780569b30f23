// internal/churn/model/logistic.go
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"churn-workers/internal/churn"
)

// Artifact is the exported form of a standard-scaled logistic regression.
type Artifact struct {
	Features  []string  `json:"features"`
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Version   string    `json:"version,omitempty"`
}

// Logistic scores records in-process from an Artifact. It is immutable and
// safe for concurrent use.
type Logistic struct {
	features  []string
	mean      []float64
	scale     []float64
	coef      []float64
	intercept float64
	version   string
}

func NewLogistic(a Artifact) (*Logistic, error) {
	n := len(a.Features)
	if n == 0 {
		return nil, fmt.Errorf("model artifact has no features")
	}
	if len(a.Mean) != n || len(a.Scale) != n || len(a.Coef) != n {
		return nil, fmt.Errorf("model artifact dimensions disagree: features=%d mean=%d scale=%d coef=%d",
			n, len(a.Mean), len(a.Scale), len(a.Coef))
	}

	known := make(map[string]bool, len(churn.FieldNames))
	for _, f := range churn.FieldNames {
		known[f] = true
	}
	for i, f := range a.Features {
		if !known[f] {
			return nil, fmt.Errorf("model artifact uses unknown feature %q", f)
		}
		if a.Scale[i] == 0 || math.IsNaN(a.Scale[i]) {
			return nil, fmt.Errorf("model artifact has zero scale for %q", f)
		}
	}

	return &Logistic{
		features:  append([]string(nil), a.Features...),
		mean:      append([]float64(nil), a.Mean...),
		scale:     append([]float64(nil), a.Scale...),
		coef:      append([]float64(nil), a.Coef...),
		intercept: a.Intercept,
		version:   a.Version,
	}, nil
}

// LoadLogistic reads an Artifact from a JSON file.
func LoadLogistic(path string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}
	return NewLogistic(a)
}

func (m *Logistic) Version() string { return m.version }

func (m *Logistic) Score(ctx context.Context, record churn.FeatureRecord) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	z := m.intercept
	for i, f := range m.features {
		v, ok := record[f]
		if !ok {
			return 0, fmt.Errorf("record missing feature %q", f)
		}
		z += m.coef[i] * (v - m.mean[i]) / m.scale[i]
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
