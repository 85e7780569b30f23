// cmd/tools/worker-generator/templates.go
package main

const configTemplate = `// internal/workers/{{ .CategoryDir }}/{{ .ID }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ .TimeoutLiteral }},
	}
}
`

const modelsTemplate = `package {{ .PackageName }}

type Input struct {
{{- if .InputFields }}
{{ .InputFields }}
{{- end }}
}

type Output struct {
{{- if .OutputFields }}
{{ .OutputFields }}
{{- end }}
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
)

const (
	TaskType = "{{ .TaskType }}"
)

// Handler implements {{ .DisplayName }}: {{ .Description }}
type Handler struct {
	config       *Config
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

// TODO: implement {{ .TaskType }}; return *errors.StandardError values{{ if .ErrorCodes }} ({{ .ErrorCodes }}){{ end }}.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTimeoutError(TaskType, err)
	}
	return &Output{}, nil
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
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"{{ .Module }}/internal/common/camunda/camundatest"
	"{{ .Module }}/internal/common/logger"
)

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestHandler_Handle(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.NewJob(1, TaskType, map[string]interface{}{}))

	assert.Len(t, client.Gateway.Completed, 1)
}
`

const readmeTemplate = `# {{ .DisplayName }}

{{ .Description }}

- Task type: ` + "`{{ .TaskType }}`" + `
- Category: {{ .Category }}
- Status: {{ .ImplementationStatus }}
- Timeout: {{ .Timeout }}, retries: {{ .Retries }}
{{- if .ErrorCodes }}
- Error codes: {{ .ErrorCodes }}
{{- end }}

Register it in ` + "`cmd/worker-manager/main.go`" + `:

` + "```go" + `
{
	c := {{ .PackageName }}.LoadConfig()
	c.Timeout = workerTimeout(cfg, {{ .PackageName }}.TaskType, c.Timeout)
	start({{ .PackageName }}.TaskType, {{ .PackageName }}.NewHandler(c, log))
}
` + "```" + `

and add it under ` + "`workers:`" + ` in ` + "`configs/config.yaml`" + `.
`
