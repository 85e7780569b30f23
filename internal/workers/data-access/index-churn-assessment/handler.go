package indexchurnassessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	"churn-workers/internal/churn/risk"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
)

const (
	TaskType = "index-churn-assessment"
)

type Handler struct {
	config       *Config
	client       *elasticsearch.Client
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
		now:          time.Now,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job,
			errors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AssessmentID == "" {
		return nil, errors.NewValidationError("assessmentId is required")
	}
	if _, err := risk.ParseTier(input.RiskTier); err != nil {
		return nil, errors.NewValidationErrorFrom(err)
	}

	body, err := json.Marshal(h.document(input))
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	res, err := h.client.Index(
		h.config.Index,
		bytes.NewReader(body),
		h.client.Index.WithContext(ctx),
		h.client.Index.WithDocumentID(input.AssessmentID),
	)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		stdErr := errors.NewIndexFailedError(h.config.Index, fmt.Errorf("%s", res.String()))
		// Mapping and request errors will not fix themselves on retry.
		if res.StatusCode < http.StatusInternalServerError && res.StatusCode != http.StatusTooManyRequests {
			stdErr.Retryable = false
		}
		return nil, stdErr
	}

	var ir indexResponse
	if err := json.NewDecoder(res.Body).Decode(&ir); err != nil {
		return nil, errors.NewIndexFailedError(h.config.Index, fmt.Errorf("decode response: %w", err))
	}

	h.logger.Info("assessment indexed", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"result":       ir.Result,
	})

	return &Output{
		Indexed:    true,
		Index:      h.config.Index,
		DocumentID: input.AssessmentID,
		Result:     ir.Result,
	}, nil
}

func (h *Handler) document(input *Input) Document {
	assessedAt := input.RecordedAt
	if assessedAt == "" {
		assessedAt = h.now().UTC().Format(time.RFC3339)
	}
	strategies := input.Strategies
	if strategies == nil {
		strategies = []string{}
	}
	return Document{
		AssessmentID:     input.AssessmentID,
		CustomerID:       input.CustomerID,
		ChurnProbability: input.ChurnProbability,
		RiskTier:         input.RiskTier,
		Strategies:       strategies,
		Features:         input.Features,
		ModelVersion:     input.ModelVersion,
		AssessedAt:       assessedAt,
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
