package recordchurnassessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"churn-workers/internal/churn"
	"churn-workers/internal/churn/risk"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
)

const (
	TaskType = "record-churn-assessment"
)

const insertAssessment = `INSERT INTO churn_assessments (id, customer_id, churn_probability, risk_tier, strategies, features, model_version, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`

const insertAudit = `INSERT INTO audit_log (entity_type, entity_id, action, payload) VALUES ($1, $2, $3, $4)`

type Handler struct {
	config       *Config
	db           *sql.DB
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		now:          time.Now,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

// AssessmentIDForJob is stable across retries of the same job.
func AssessmentIDForJob(jobKey int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("churn-assessment/%d", jobKey))).String()
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
	if input.AssessmentID == "" {
		input.AssessmentID = AssessmentIDForJob(job.Key)
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

func (h *Handler) validate(input *Input) error {
	if input.AssessmentID != "" {
		if _, err := uuid.Parse(input.AssessmentID); err != nil {
			return errors.NewValidationError(fmt.Sprintf("assessmentId: %v", err))
		}
	}
	if err := churn.CheckProbability(input.ChurnProbability); err != nil {
		return errors.NewValidationErrorFrom(err)
	}
	if _, err := risk.ParseTier(input.RiskTier); err != nil {
		return errors.NewValidationErrorFrom(err)
	}
	if err := input.Features.Validate(); err != nil {
		return errors.NewValidationErrorFrom(err)
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validate(input); err != nil {
		return nil, err
	}

	id := input.AssessmentID
	if id == "" {
		id = uuid.New().String()
	}

	strategies := input.Strategies
	if strategies == nil {
		strategies = []string{}
	}
	strategiesJSON, err := json.Marshal(strategies)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	featuresJSON, err := json.Marshal(input.Features)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	recordedAt := h.now().UTC()
	res, err := h.db.ExecContext(ctx, insertAssessment,
		id,
		sql.NullString{String: input.CustomerID, Valid: input.CustomerID != ""},
		input.ChurnProbability,
		input.RiskTier,
		strategiesJSON,
		featuresJSON,
		sql.NullString{String: input.ModelVersion, Valid: input.ModelVersion != ""},
		recordedAt,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	inserted := true
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		inserted = false
		h.logger.Info("assessment already recorded", map[string]interface{}{"assessmentId": id})
	}

	if inserted && h.config.AuditEnabled {
		h.audit(ctx, id, input)
	}

	return &Output{
		AssessmentID: id,
		RecordedAt:   recordedAt.Format(time.RFC3339),
		Inserted:     inserted,
	}, nil
}

// audit failures are logged and otherwise ignored.
func (h *Handler) audit(ctx context.Context, id string, input *Input) {
	payload, _ := json.Marshal(map[string]interface{}{
		"customerId":       input.CustomerID,
		"riskTier":         input.RiskTier,
		"churnProbability": input.ChurnProbability,
		"strategyCount":    len(input.Strategies),
	})
	if _, err := h.db.ExecContext(ctx, insertAudit, "churn_assessment", id, "created", payload); err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"assessmentId": id,
			"error":        err,
		})
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
