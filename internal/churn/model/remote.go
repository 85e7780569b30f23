// internal/churn/model/remote.go
package model

import (
	"context"
	"fmt"
	"time"

	"churn-workers/internal/churn"
	httpclient "churn-workers/internal/common/http"
)

type predictRequest struct {
	Instances []churn.FeatureRecord `json:"instances"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// Remote calls a model-serving endpoint. Safe for concurrent use.
type Remote struct {
	url    string
	client *httpclient.Client
}

func NewRemote(url string, timeout time.Duration) *Remote {
	return &Remote{url: url, client: httpclient.NewClient(timeout)}
}

func (r *Remote) Version() string { return "remote:" + r.url }

func (r *Remote) Score(ctx context.Context, record churn.FeatureRecord) (float64, error) {
	var out predictResponse
	if err := r.client.PostJSON(ctx, r.url, predictRequest{Instances: []churn.FeatureRecord{record}}, &out); err != nil {
		return 0, fmt.Errorf("scoring request failed: %w", err)
	}
	if len(out.Probabilities) != 1 {
		return 0, fmt.Errorf("scoring service returned %d probabilities, want 1", len(out.Probabilities))
	}
	return out.Probabilities[0], nil
}
