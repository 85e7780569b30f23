// Package risk buckets a churn probability into the tiers shown to account
// managers.
package risk

import (
	"fmt"

	"churn-workers/internal/churn"
)

// Tier is the coarse churn-risk bucket.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Default thresholds.
const (
	DefaultLowThreshold  = 0.30
	DefaultHighThreshold = 0.60
)

// Thresholds splits [0,1] into three tiers: p < Low is low, p < High is
// medium, anything else is high.
type Thresholds struct {
	Low  float64 `mapstructure:"low" json:"low"`
	High float64 `mapstructure:"high" json:"high"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: DefaultLowThreshold, High: DefaultHighThreshold}
}

func (t Thresholds) Validate() error {
	if !(t.Low > 0 && t.Low < t.High && t.High <= 1) {
		return fmt.Errorf("invalid risk thresholds: need 0 < low < high <= 1, got low=%v high=%v", t.Low, t.High)
	}
	return nil
}

// Classify returns the tier for p. p must be a valid probability.
func (t Thresholds) Classify(p float64) (Tier, error) {
	if err := churn.CheckProbability(p); err != nil {
		return "", err
	}
	switch {
	case p < t.Low:
		return TierLow, nil
	case p < t.High:
		return TierMedium, nil
	default:
		return TierHigh, nil
	}
}

// Classify uses the default thresholds.
func Classify(p float64) (Tier, error) {
	return DefaultThresholds().Classify(p)
}

// ParseTier accepts the string form of a tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierLow, TierMedium, TierHigh:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown risk tier %q", s)
}
