package model

import (
	"context"
	"time"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/metrics"
)

// Versioned is implemented by scorers that know their artifact version.
type Versioned interface {
	Version() string
}

// VersionOf returns the scorer's version, or "unknown".
func VersionOf(s churn.Scorer) string {
	if v, ok := s.(Versioned); ok && v.Version() != "" {
		return v.Version()
	}
	return "unknown"
}

// Instrumented records the latency and outcome of every Score call. Errors
// and probabilities pass through untouched.
type Instrumented struct {
	next churn.Scorer
}

func Instrument(s churn.Scorer) *Instrumented {
	return &Instrumented{next: s}
}

func (i *Instrumented) Score(ctx context.Context, record churn.FeatureRecord) (float64, error) {
	start := time.Now()
	p, err := i.next.Score(ctx, record)
	metrics.ScoringObserved(time.Since(start), err)
	return p, err
}

func (i *Instrumented) Version() string {
	return VersionOf(i.next)
}
