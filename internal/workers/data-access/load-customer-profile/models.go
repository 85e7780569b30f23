// internal/workers/data-access/load-customer-profile/models.go
package loadcustomerprofile

import "churn-workers/internal/churn"

type Input struct {
	CustomerID string `json:"customerId"`
}

const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

type Output struct {
	Profile       churn.Profile `json:"profile"`
	ProfileSource string        `json:"profileSource"`
}
