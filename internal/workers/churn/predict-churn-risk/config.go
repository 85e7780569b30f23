// internal/workers/churn/predict-churn-risk/config.go
package predictchurnrisk

import (
	"time"

	"churn-workers/internal/churn/risk"
)

type Config struct {
	Timeout    time.Duration
	Thresholds risk.Thresholds
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    5 * time.Second,
		Thresholds: risk.DefaultThresholds(),
	}
}
