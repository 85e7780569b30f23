// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"churn-workers/internal/common/config"
	"churn-workers/internal/common/logger"
	"churn-workers/internal/common/metrics"
	"churn-workers/internal/common/observability"
)

// JobHandler is implemented by every task-type handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type HandlerFunc func(client worker.JobClient, job entities.Job)

func (f HandlerFunc) Handle(client worker.JobClient, job entities.Job) { f(client, job) }

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Instrument wraps h so every job records active/duration metrics, a span,
// and the outcome the handler reported back to the broker. obs may be nil.
func Instrument(taskType string, h JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		done := metrics.JobStarted(taskType)
		start := time.Now()
		ctx, span := obs.StartJobSpan(context.Background(), taskType, job.Key, job.ProcessInstanceKey)

		sc := &statusClient{JobClient: client}
		h.Handle(sc, job)
		done()

		status := sc.outcome()
		if status == statusCompleted {
			metrics.JobCompleted(taskType)
		}
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, time.Since(start), status)
		observability.EndJobSpan(span, status)
	}
}

// statusClient notes which terminal command the handler built.
type statusClient struct {
	worker.JobClient

	mu     sync.Mutex
	status string
}

func (c *statusClient) set(s string) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *statusClient) outcome() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == "" {
		return statusFailed
	}
	return c.status
}

func (c *statusClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.set(statusCompleted)
	return c.JobClient.NewCompleteJobCommand()
}

func (c *statusClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.set(statusFailed)
	return c.JobClient.NewFailJobCommand()
}

func (c *statusClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.set(statusFailed)
	return c.JobClient.NewThrowErrorCommand()
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType on client. Closing the worker
// leaves the shared client open.
func NewWorker(
	client zbc.Client,
	taskType string,
	cfg config.WorkerConfig,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *CamundaWorker {
	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs)).
		MaxJobsActive(cfg.MaxJobsActive).
		Name("churn-workers-" + taskType)
	if cfg.Timeout > 0 {
		// Activation lock must outlive the handler's own execute timeout.
		builder = builder.Timeout(2 * config.GetDuration(cfg.Timeout))
	}

	w := &CamundaWorker{
		worker:   builder.Open(),
		logger:   log.WithFields(map[string]interface{}{"taskType": taskType}),
		taskType: taskType,
	}
	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": cfg.MaxJobsActive,
		"timeoutMs":     cfg.Timeout,
	})
	return w
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
