package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-workers/internal/common/camunda/camundatest"
	"churn-workers/internal/common/config"
	"churn-workers/internal/common/errors"
	"churn-workers/internal/common/metrics"
)

func fastClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("retries transient errors until success", func(t *testing.T) {
		calls := 0
		res, err := fastClient(3).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
			}
			return "ok", nil
		}, "deploy")

		require.NoError(t, err)
		assert.Equal(t, "ok", res)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		_, err := fastClient(3).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("NOT_FOUND: process not found")
		}, "create-instance")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		stdErr, ok := errors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeInternal, stdErr.Code)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := fastClient(2).ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("context deadline exceeded")
		}, "publish")

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		stdErr, ok := errors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		c := fastClient(5)
		c.config.RetryConfig.BaseDelay = time.Hour
		c.config.RetryConfig.MaxDelay = time.Hour

		_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
			cancel()
			return nil, stderrors.New("connection reset by peer")
		}, "publish")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackoff(t *testing.T) {
	rc := &RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, backoff(rc, 0))
	assert.Equal(t, 2*time.Second, backoff(rc, 1))
	assert.Equal(t, 4*time.Second, backoff(rc, 2))
	assert.Equal(t, 5*time.Second, backoff(rc, 3))
}

func TestClientConfigFrom(t *testing.T) {
	cc := ClientConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", Timeout: 5000, RequestTimeout: 1500})
	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.Equal(t, 5*time.Second, cc.ConnectionTimeout)
	assert.Equal(t, 1500*time.Millisecond, cc.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cc.RetryConfig)
}

func TestInstrument(t *testing.T) {
	const taskType = "instrument-test"

	completing := HandlerFunc(func(client worker.JobClient, job entities.Job) {
		cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromMap(map[string]interface{}{"ok": true})
		require.NoError(t, err)
		_, err = cmd.Send(context.Background())
		require.NoError(t, err)
	})
	throwing := HandlerFunc(func(client worker.JobClient, job entities.Job) {
		_, _ = client.NewThrowErrorCommand().JobKey(job.Key).ErrorCode("VALIDATION_FAILED").Send(context.Background())
	})

	before := testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType))

	client := camundatest.NewJobClient()
	Instrument(taskType, completing, nil)(client, camundatest.NewJob(1, taskType, map[string]interface{}{}))
	Instrument(taskType, throwing, nil)(client, camundatest.NewJob(2, taskType, map[string]interface{}{}))

	assert.Len(t, client.Gateway.Completed, 1)
	assert.Len(t, client.Gateway.Thrown, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
