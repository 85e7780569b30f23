// internal/workers/communication/send-retention-report/config.go
package sendretentionreport

import "time"

type Config struct {
	EmailEnabled     bool
	FromEmail        string
	DefaultRecipient string
	SMSEnabled       bool
	AlertTopicARN    string
	SenderID         string
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
