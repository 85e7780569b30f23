// internal/workers/data-access/index-churn-assessment/config.go
package indexchurnassessment

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Index:   "churn-assessments",
	}
}
