// internal/workers/retention/generate-retention-strategies/models.go
package generateretentionstrategies

import (
	"churn-workers/internal/churn"
	"churn-workers/internal/churn/retention"
)

type Input struct {
	CustomerID string              `json:"customerId,omitempty"`
	Features   churn.FeatureRecord `json:"features"`
}

type Output struct {
	Strategies      []string          `json:"strategies"`
	StrategyCount   int               `json:"strategyCount"`
	BaseProbability float64           `json:"baseProbability"`
	Probes          []retention.Probe `json:"probes"`
}
