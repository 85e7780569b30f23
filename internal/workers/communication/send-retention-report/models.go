// internal/workers/communication/send-retention-report/models.go
package sendretentionreport

type Input struct {
	AssessmentID     string   `json:"assessmentId,omitempty"`
	CustomerID       string   `json:"customerId,omitempty"`
	ChurnProbability float64  `json:"churnProbability"`
	RiskTier         string   `json:"riskTier"`
	Strategies       []string `json:"strategies"`
	// Recipient overrides the configured account-manager address.
	Recipient string `json:"recipient,omitempty"`
}

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

type Output struct {
	NotificationID string `json:"notificationId"`
	EmailStatus    string `json:"emailStatus"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	AlertStatus    string `json:"alertStatus"`
	AlertMessageID string `json:"alertMessageId,omitempty"`
	SentAt         string `json:"sentAt"`
}
