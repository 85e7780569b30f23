package loadcustomerprofile

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/database"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
)

const (
	TaskType = "load-customer-profile"

	queryType = "customer-profile"
)

const selectProfile = `SELECT customer_id, credit_score, geography, gender, age, tenure, balance, num_of_products, has_cr_card, is_active_member, estimated_salary FROM customers WHERE customer_id = $1`

// ProfileCache is the read-through cache in front of the customers table.
// *database.RedisClient implements it.
type ProfileCache interface {
	GetJSON(ctx context.Context, key string, out interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Handler struct {
	config       *Config
	db           *sql.DB
	cache        ProfileCache
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. cache may be nil.
func NewHandler(config *Config, db *sql.DB, cache ProfileCache, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		cache:        cache,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func CacheKey(customerID string) string {
	return "churn:profile:" + customerID
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
	id := strings.TrimSpace(input.CustomerID)
	if id == "" {
		return nil, errors.NewValidationError("customerId is required")
	}

	if h.cache != nil {
		var cached churn.Profile
		err := h.cache.GetJSON(ctx, CacheKey(id), &cached)
		switch {
		case err == nil:
			return &Output{Profile: cached, ProfileSource: SourceCache}, nil
		case !stderrors.Is(err, database.ErrCacheMiss):
			h.logger.Warn("profile cache read failed", map[string]interface{}{
				"customerId": id,
				"error":      err,
			})
		}
	}

	profile, err := h.queryProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, CacheKey(id), profile, h.config.CacheTTL); err != nil {
			h.logger.Warn("profile cache write failed", map[string]interface{}{
				"customerId": id,
				"error":      err,
			})
		}
	}

	return &Output{Profile: *profile, ProfileSource: SourceDatabase}, nil
}

func (h *Handler) queryProfile(ctx context.Context, id string) (*churn.Profile, error) {
	var p churn.Profile
	err := h.db.QueryRowContext(ctx, selectProfile, id).Scan(
		&p.CustomerID,
		&p.CreditScore,
		&p.Geography,
		&p.Gender,
		&p.Age,
		&p.Tenure,
		&p.Balance,
		&p.NumOfProducts,
		&p.HasCrCard,
		&p.IsActiveMember,
		&p.EstimatedSalary,
	)
	switch {
	case err == nil:
		return &p, nil
	case stderrors.Is(err, sql.ErrNoRows):
		return nil, errors.NewCustomerNotFoundError(id)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, errors.NewQueryTimeoutError(queryType)
	default:
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
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
