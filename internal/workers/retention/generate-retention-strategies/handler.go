package generateretentionstrategies

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"churn-workers/internal/churn"
	"churn-workers/internal/churn/retention"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/metrics"
)

const (
	TaskType = "generate-retention-strategies"
)

type Handler struct {
	config       *Config
	engine       *retention.Engine
	scorer       churn.Scorer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, engine *retention.Engine, scorer churn.Scorer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		scorer:       scorer,
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
	if len(input.Features) == 0 {
		return nil, errors.NewValidationError("features is required")
	}

	eval, err := h.engine.Evaluate(ctx, h.scorer, input.Features)
	if err != nil {
		return nil, h.mapError(ctx, err)
	}

	for _, p := range eval.Probes {
		metrics.ProbeRecorded(p.Rule, outcome(p))
	}

	strategies := eval.Recommendations()
	h.logger.Info("retention strategies generated", map[string]interface{}{
		"customerId":      input.CustomerID,
		"baseProbability": eval.BaseProbability,
		"strategyCount":   len(strategies),
	})

	return &Output{
		Strategies:      strategies,
		StrategyCount:   len(strategies),
		BaseProbability: eval.BaseProbability,
		Probes:          eval.Probes,
	}, nil
}

func outcome(p retention.Probe) string {
	switch {
	case p.Skipped:
		return "skipped"
	case p.Triggered:
		return "triggered"
	default:
		return "not_triggered"
	}
}

func (h *Handler) mapError(ctx context.Context, err error) *errors.StandardError {
	switch {
	case stderrors.Is(err, churn.ErrValidation):
		return errors.NewValidationErrorFrom(err)
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
