// internal/churn/model/load.go
package model

import (
	"fmt"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/config"
)

// Load builds the scorer selected by cfg.Type.
func Load(cfg config.ModelConfig) (churn.Scorer, error) {
	switch cfg.Type {
	case config.ModelTypeLogistic, "":
		return LoadLogistic(cfg.ArtifactPath)
	case config.ModelTypeRemote:
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("remote model needs a url")
		}
		return NewRemote(cfg.RemoteURL, config.GetDuration(cfg.Timeout)), nil
	default:
		return nil, fmt.Errorf("unknown model type %q", cfg.Type)
	}
}
