// internal/workers/data-access/index-churn-assessment/models.go
package indexchurnassessment

import "churn-workers/internal/churn"

type Input struct {
	AssessmentID     string              `json:"assessmentId"`
	CustomerID       string              `json:"customerId,omitempty"`
	ChurnProbability float64             `json:"churnProbability"`
	RiskTier         string              `json:"riskTier"`
	Strategies       []string            `json:"strategies"`
	Features         churn.FeatureRecord `json:"features"`
	ModelVersion     string              `json:"modelVersion,omitempty"`
	RecordedAt       string              `json:"recordedAt,omitempty"`
}

// Document is the indexed form; field names follow database.AssessmentMapping.
type Document struct {
	AssessmentID     string              `json:"assessmentId"`
	CustomerID       string              `json:"customerId,omitempty"`
	ChurnProbability float64             `json:"churnProbability"`
	RiskTier         string              `json:"riskTier"`
	Strategies       []string            `json:"strategies"`
	Features         churn.FeatureRecord `json:"features"`
	ModelVersion     string              `json:"modelVersion,omitempty"`
	AssessedAt       string              `json:"assessedAt"`
}

type Output struct {
	Indexed    bool   `json:"indexed"`
	Index      string `json:"index"`
	DocumentID string `json:"documentId"`
	Result     string `json:"indexResult"`
}

type indexResponse struct {
	Index  string `json:"_index"`
	ID     string `json:"_id"`
	Result string `json:"result"`
}
