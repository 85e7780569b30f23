package sendretentionreport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"churn-workers/internal/churn"
	"churn-workers/internal/churn/report"
	"churn-workers/internal/churn/risk"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/validation"
)

const (
	TaskType = "send-retention-report"
)

// Mailer sends the rendered report. *aws.SESClient implements it.
type Mailer interface {
	SendText(ctx context.Context, from, to, subject, body string) (string, error)
}

// Alerter publishes the high-risk alert. *aws.SNSClient implements it.
type Alerter interface {
	PublishAlert(ctx context.Context, topicARN, subject, message, senderID string) (string, error)
}

type Handler struct {
	config       *Config
	mailer       Mailer
	alerter      Alerter
	now          func() time.Time
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, mailer Mailer, alerter Alerter, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		mailer:       mailer,
		alerter:      alerter,
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
	tier, err := risk.ParseTier(input.RiskTier)
	if err != nil {
		return nil, errors.NewValidationErrorFrom(err)
	}
	if err := churn.CheckProbability(input.ChurnProbability); err != nil {
		return nil, errors.NewValidationErrorFrom(err)
	}

	rep := report.New(input.CustomerID, input.ChurnProbability, tier, input.Strategies, h.now())
	out := &Output{
		NotificationID: uuid.New().String(),
		EmailStatus:    StatusDisabled,
		AlertStatus:    StatusDisabled,
		SentAt:         rep.GeneratedAt.Format(time.RFC3339),
	}

	if h.config.EmailEnabled {
		recipient := input.Recipient
		if recipient == "" {
			recipient = h.config.DefaultRecipient
		}
		if !validation.ValidateEmail(recipient) {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid recipient email address: %q", recipient))
		}

		id, err := h.mailer.SendText(ctx, h.config.FromEmail, recipient, rep.Subject(), rep.Text())
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("email", err)
		}
		out.EmailStatus = StatusSent
		out.EmailMessageID = id
	}

	if h.config.SMSEnabled {
		out.AlertStatus = StatusSkipped
		if tier == risk.TierHigh {
			h.sendAlert(ctx, rep, out)
		}
	}

	h.logger.Info("retention report delivered", map[string]interface{}{
		"customerId":     input.CustomerID,
		"notificationId": out.NotificationID,
		"emailStatus":    out.EmailStatus,
		"alertStatus":    out.AlertStatus,
	})

	return out, nil
}

// sendAlert does not fail the job: the email may already be out, and a retry
// would send it twice.
func (h *Handler) sendAlert(ctx context.Context, rep *report.Report, out *Output) {
	message := fmt.Sprintf("%s: churn probability %.0f%%, %d retention strategies ready.",
		rep.Subject(), rep.ChurnProbability*100, len(rep.Strategies))

	id, err := h.alerter.PublishAlert(ctx, h.config.AlertTopicARN, "High churn risk", message, h.config.SenderID)
	if err != nil {
		h.logger.Warn("high-risk alert failed", map[string]interface{}{
			"customerId": rep.CustomerID,
			"error":      err,
		})
		out.AlertStatus = StatusFailed
		return
	}
	out.AlertStatus = StatusSent
	out.AlertMessageID = id
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
