package predictchurnrisk

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"churn-workers/internal/churn"
	"churn-workers/internal/churn/model"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/metrics"
	"churn-workers/internal/common/observability"
)

const (
	TaskType = "predict-churn-risk"
)

type Handler struct {
	config       *Config
	scorer       churn.Scorer
	encoders     churn.LabelTransformer
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. obs may be nil.
func NewHandler(
	config *Config,
	scorer churn.Scorer,
	encoders churn.LabelTransformer,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		scorer:       scorer,
		encoders:     encoders,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	res, err := inputValidator.ValidateJSON(job.Variables)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
	}
	if !res.Valid {
		return nil, errors.NewValidationError(res.Error()).WithMetadata("validationErrors", res.GetErrorMessages())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	features, customerID, err := h.featureRecord(input)
	if err != nil {
		return nil, err
	}

	if err := features.Validate(); err != nil {
		return nil, errors.NewValidationErrorFrom(err)
	}

	p, err := h.scorer.Score(ctx, features.Clone())
	if err != nil {
		return nil, scoringError(ctx, err)
	}

	tier, err := h.config.Thresholds.Classify(p)
	if err != nil {
		return nil, errors.NewInvalidProbabilityError(err)
	}

	metrics.PredictionRecorded(string(tier))
	h.obs.RecordChurnProbability(ctx, p, string(tier))

	h.logger.Info("churn risk predicted", map[string]interface{}{
		"customerId":       customerID,
		"churnProbability": p,
		"riskTier":         string(tier),
	})

	return &Output{
		CustomerID:       customerID,
		Features:         features,
		ChurnProbability: p,
		RiskTier:         string(tier),
		ModelVersion:     model.VersionOf(h.scorer),
	}, nil
}

func (h *Handler) featureRecord(input *Input) (churn.FeatureRecord, string, error) {
	customerID := input.CustomerID

	if input.Profile != nil {
		if customerID == "" {
			customerID = input.Profile.CustomerID
		}
		features, err := input.Profile.FeatureRecord(h.encoders)
		if err != nil {
			return nil, "", errors.NewEncodingFailedError(err)
		}
		return features, customerID, nil
	}

	if len(input.Features) == 0 {
		return nil, "", errors.NewValidationError("either profile or features is required")
	}
	return input.Features, customerID, nil
}

// scoringError maps a scorer failure onto the job error taxonomy.
func scoringError(ctx context.Context, err error) *errors.StandardError {
	switch {
	case stderrors.Is(err, churn.ErrInvalidProbability):
		return errors.NewInvalidProbabilityError(err)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewScoringTimeoutError(err)
	default:
		return errors.NewScoringFailedError(err)
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
