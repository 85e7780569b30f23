// internal/workers/churn/predict-churn-risk/models.go
package predictchurnrisk

import "churn-workers/internal/churn"

// Input carries either a label-form profile or an already encoded feature
// record. A profile wins when both are present.
type Input struct {
	CustomerID string              `json:"customerId,omitempty"`
	Profile    *churn.Profile      `json:"profile,omitempty"`
	Features   churn.FeatureRecord `json:"features,omitempty"`
}

type Output struct {
	CustomerID       string              `json:"customerId"`
	Features         churn.FeatureRecord `json:"features"`
	ChurnProbability float64             `json:"churnProbability"`
	RiskTier         string              `json:"riskTier"`
	ModelVersion     string              `json:"modelVersion"`
}
