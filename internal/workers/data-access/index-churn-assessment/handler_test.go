package indexchurnassessment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/camunda/camundatest"
	commonerrors "churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
)

type indexRequest struct {
	Method string
	Path   string
	Doc    Document
}

// fakeES answers index requests with status and records what it received.
func fakeES(t *testing.T, status int, body string) (*httptest.Server, *[]indexRequest) {
	t.Helper()
	var got []indexRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var doc Document
		_ = json.Unmarshal(raw, &doc)
		got = append(got, indexRequest{Method: r.Method, Path: r.URL.Path, Doc: doc})

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestHandler(t *testing.T, url string) *Handler {
	t.Helper()
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
	require.NoError(t, err)

	h := NewHandler(&Config{Timeout: 5 * time.Second, Index: "churn-assessments"}, es, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC) }
	return h
}

func validInput() *Input {
	return &Input{
		AssessmentID:     "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10",
		CustomerID:       "15634602",
		ChurnProbability: 0.64,
		RiskTier:         "high",
		Strategies:       []string{"Launch Personalized Engagement Campaign."},
		Features: churn.FeatureRecord{
			churn.FieldTenure:         2,
			churn.FieldIsActiveMember: 0,
		},
		ModelVersion: "2024.06-logreg",
	}
}

const createdBody = `{"_index":"churn-assessments","_id":"5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10","result":"created"}`

func TestHandler_Execute_Success(t *testing.T) {
	srv, got := fakeES(t, http.StatusCreated, createdBody)

	out, err := newTestHandler(t, srv.URL).Execute(context.Background(), validInput())
	require.NoError(t, err)

	assert.True(t, out.Indexed)
	assert.Equal(t, "churn-assessments", out.Index)
	assert.Equal(t, "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10", out.DocumentID)
	assert.Equal(t, "created", out.Result)

	require.Len(t, *got, 1)
	req := (*got)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/churn-assessments/_doc/5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10", req.Path)
	assert.Equal(t, "high", req.Doc.RiskTier)
	assert.Equal(t, "2024-06-03T09:30:00Z", req.Doc.AssessedAt)
	assert.Equal(t, []string{"Launch Personalized Engagement Campaign."}, req.Doc.Strategies)
}

func TestHandler_Execute_KeepsRecordedAt(t *testing.T) {
	srv, got := fakeES(t, http.StatusOK, `{"result":"updated"}`)

	in := validInput()
	in.RecordedAt = "2024-05-01T12:00:00Z"
	in.Strategies = nil

	out, err := newTestHandler(t, srv.URL).Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "updated", out.Result)
	assert.Equal(t, "2024-05-01T12:00:00Z", (*got)[0].Doc.AssessedAt)
	assert.NotNil(t, (*got)[0].Doc.Strategies)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		input         func() *Input
		wantCode      commonerrors.ErrorCode
		wantRetryable bool
	}{
		{
			name:          "server error is retryable",
			status:        http.StatusInternalServerError,
			input:         validInput,
			wantCode:      commonerrors.ErrCodeIndexFailed,
			wantRetryable: true,
		},
		{
			name:     "mapping conflict is not retried",
			status:   http.StatusBadRequest,
			input:    validInput,
			wantCode: commonerrors.ErrCodeIndexFailed,
		},
		{
			name:   "missing assessment id",
			status: http.StatusCreated,
			input: func() *Input {
				in := validInput()
				in.AssessmentID = ""
				return in
			},
			wantCode: commonerrors.ErrCodeValidationFailed,
		},
		{
			name:   "unknown tier",
			status: http.StatusCreated,
			input: func() *Input {
				in := validInput()
				in.RiskTier = "severe"
				return in
			},
			wantCode: commonerrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeES(t, tt.status, `{"error":{"type":"mapper_parsing_exception"},"status":400}`)

			_, err := newTestHandler(t, srv.URL).Execute(context.Background(), tt.input())
			stdErr, ok := commonerrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestHandler(t, url).Execute(context.Background(), validInput())
	stdErr, ok := commonerrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeElasticsearchConnectionFailed, stdErr.Code)
}

func TestHandler_Handle(t *testing.T) {
	t.Run("completes", func(t *testing.T) {
		srv, _ := fakeES(t, http.StatusCreated, createdBody)
		client := camundatest.NewJobClient()

		newTestHandler(t, srv.URL).Handle(client, camundatest.NewJob(1, TaskType, validInput()))

		require.Len(t, client.Gateway.Completed, 1)
		var out Output
		require.NoError(t, client.CompletedVariables(0, &out))
		assert.True(t, out.Indexed)
	})

	t.Run("bad request throws INDEX_FAILED", func(t *testing.T) {
		srv, _ := fakeES(t, http.StatusBadRequest, `{"error":"bad"}`)
		client := camundatest.NewJobClient()

		newTestHandler(t, srv.URL).Handle(client, camundatest.NewJob(2, TaskType, validInput()))

		require.Len(t, client.Gateway.Thrown, 1)
		assert.Equal(t, "INDEX_FAILED", client.Gateway.Thrown[0].ErrorCode)
	})
}
