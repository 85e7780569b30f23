// internal/workers/data-access/record-churn-assessment/models.go
package recordchurnassessment

import "churn-workers/internal/churn"

type Input struct {
	// AssessmentID is optional; the handler derives one from the job key so
	// a retried job writes the same row.
	AssessmentID     string              `json:"assessmentId,omitempty"`
	CustomerID       string              `json:"customerId,omitempty"`
	ChurnProbability float64             `json:"churnProbability"`
	RiskTier         string              `json:"riskTier"`
	Strategies       []string            `json:"strategies"`
	Features         churn.FeatureRecord `json:"features"`
	ModelVersion     string              `json:"modelVersion,omitempty"`
}

type Output struct {
	AssessmentID string `json:"assessmentId"`
	RecordedAt   string `json:"recordedAt"`
	Inserted     bool   `json:"inserted"`
}
