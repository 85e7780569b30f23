// internal/churn/report/report.go
package report

import (
	"fmt"
	"strings"
	"time"

	"churn-workers/internal/churn/risk"
)

const title = "Customer Retention Strategy Report"

// Report is the retention document sent to account managers. It carries only
// plain values so any renderer can consume it.
type Report struct {
	CustomerID       string    `json:"customerId"`
	ChurnProbability float64   `json:"churnProbability"`
	RiskTier         risk.Tier `json:"riskTier"`
	Strategies       []string  `json:"strategies"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

func New(customerID string, probability float64, tier risk.Tier, strategies []string, now time.Time) *Report {
	return &Report{
		CustomerID:       customerID,
		ChurnProbability: probability,
		RiskTier:         tier,
		Strategies:       append([]string(nil), strategies...),
		GeneratedAt:      now.UTC(),
	}
}

// Subject is the e-mail subject line.
func (r *Report) Subject() string {
	id := r.CustomerID
	if id == "" {
		id = "unidentified customer"
	}
	return fmt.Sprintf("[%s risk] Retention strategies for %s", strings.ToUpper(string(r.RiskTier)), id)
}

// Text renders the plain-text report.
func (r *Report) Text() string {
	var b strings.Builder

	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")

	if r.CustomerID != "" {
		fmt.Fprintf(&b, "Customer:          %s\n", r.CustomerID)
	}
	fmt.Fprintf(&b, "Churn probability: %.2f%%\n", r.ChurnProbability*100)
	fmt.Fprintf(&b, "Risk tier:         %s\n", r.RiskTier)
	fmt.Fprintf(&b, "Generated at:      %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("Recommended retention strategies:\n")
	if len(r.Strategies) == 0 {
		b.WriteString("  No single-factor change lowers this customer's churn risk.\n")
		return b.String()
	}
	for i, s := range r.Strategies {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
	}
	return b.String()
}
