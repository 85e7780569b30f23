// internal/workers/data-access/record-churn-assessment/config.go
package recordchurnassessment

import "time"

type Config struct {
	Timeout time.Duration
	// AuditEnabled controls the audit_log row written after each insert.
	AuditEnabled bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		AuditEnabled: true,
	}
}
