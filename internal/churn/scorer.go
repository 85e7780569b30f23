// internal/churn/scorer.go
package churn

import "context"

// Scorer is the churn classifier's probability capability. Implementations
// must be deterministic for a fixed record and must not mutate it.
type Scorer interface {
	Score(ctx context.Context, record FeatureRecord) (float64, error)
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(ctx context.Context, record FeatureRecord) (float64, error)

func (f ScorerFunc) Score(ctx context.Context, record FeatureRecord) (float64, error) {
	return f(ctx, record)
}
