// internal/workers/retention/generate-retention-strategies/config.go
package generateretentionstrategies

import "time"

type Config struct {
	// Timeout bounds the whole probe run: the baseline plus every applicable
	// rule is scored under one deadline.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
