package recordchurnassessment

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/camunda/camundatest"
	commonerrors "churn-workers/internal/common/errors"
	"churn-workers/internal/common/logger"
)

var fixedNow = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

func features() churn.FeatureRecord {
	return churn.FeatureRecord{
		churn.FieldCreditScore:     619,
		churn.FieldGeography:       0,
		churn.FieldGender:          0,
		churn.FieldAge:             42,
		churn.FieldTenure:          2,
		churn.FieldBalance:         0,
		churn.FieldNumOfProducts:   1,
		churn.FieldHasCrCard:       1,
		churn.FieldIsActiveMember:  1,
		churn.FieldEstimatedSalary: 101348.88,
	}
}

func validInput() *Input {
	return &Input{
		AssessmentID:     "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10",
		CustomerID:       "15634602",
		ChurnProbability: 0.64,
		RiskTier:         "high",
		Strategies:       []string{"Offer Loyalty Reward Program to increase customer engagement."},
		Features:         features(),
		ModelVersion:     "2024.06-logreg",
	}
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(&Config{Timeout: 5 * time.Second, AuditEnabled: true}, db, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h, mock
}

func expectInsert(mock sqlmock.Sqlmock, id interface{}) *sqlmock.ExpectedExec {
	return mock.ExpectExec(regexp.QuoteMeta(insertAssessment)).WithArgs(
		id,
		"15634602",
		0.64,
		"high",
		[]byte(`["Offer Loyalty Reward Program to increase customer engagement."]`),
		sqlmock.AnyArg(),
		"2024.06-logreg",
		fixedNow,
	)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		input          func() *Input
		setup          func(mock sqlmock.Sqlmock)
		wantErrCode    commonerrors.ErrorCode
		validateOutput func(t *testing.T, out *Output)
	}{
		{
			name:  "inserts assessment and audit row",
			input: validInput,
			setup: func(mock sqlmock.Sqlmock) {
				expectInsert(mock, "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta(insertAudit)).
					WithArgs("churn_assessment", "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10", "created", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.Equal(t, "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10", out.AssessmentID)
				assert.Equal(t, "2024-06-03T09:30:00Z", out.RecordedAt)
				assert.True(t, out.Inserted)
			},
		},
		{
			name: "generates an id when none is given",
			input: func() *Input {
				in := validInput()
				in.AssessmentID = ""
				return in
			},
			setup: func(mock sqlmock.Sqlmock) {
				expectInsert(mock, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta(insertAudit)).WillReturnResult(sqlmock.NewResult(1, 1))
			},
			validateOutput: func(t *testing.T, out *Output) {
				_, err := uuid.Parse(out.AssessmentID)
				assert.NoError(t, err)
			},
		},
		{
			name:  "replayed job does not write a second audit row",
			input: validInput,
			setup: func(mock sqlmock.Sqlmock) {
				expectInsert(mock, "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.False(t, out.Inserted)
			},
		},
		{
			name:  "audit failure is not fatal",
			input: validInput,
			setup: func(mock sqlmock.Sqlmock) {
				expectInsert(mock, "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta(insertAudit)).WillReturnError(errors.New("audit_log is locked"))
			},
			validateOutput: func(t *testing.T, out *Output) {
				assert.True(t, out.Inserted)
			},
		},
		{
			name:  "insert failure is retryable",
			input: validInput,
			setup: func(mock sqlmock.Sqlmock) {
				expectInsert(mock, "5f0c7c5e-8a0b-4f41-9d55-1f0f2b1c9a10").WillReturnError(errors.New("connection reset"))
			},
			wantErrCode: commonerrors.ErrCodeDatabaseInsertFailed,
		},
		{
			name: "unknown risk tier",
			input: func() *Input {
				in := validInput()
				in.RiskTier = "critical"
				return in
			},
			setup:       func(sqlmock.Sqlmock) {},
			wantErrCode: commonerrors.ErrCodeValidationFailed,
		},
		{
			name: "probability out of range",
			input: func() *Input {
				in := validInput()
				in.ChurnProbability = 1.2
				return in
			},
			setup:       func(sqlmock.Sqlmock) {},
			wantErrCode: commonerrors.ErrCodeValidationFailed,
		},
		{
			name: "features incomplete",
			input: func() *Input {
				in := validInput()
				delete(in.Features, churn.FieldAge)
				return in
			},
			setup:       func(sqlmock.Sqlmock) {},
			wantErrCode: commonerrors.ErrCodeValidationFailed,
		},
		{
			name: "malformed assessment id",
			input: func() *Input {
				in := validInput()
				in.AssessmentID = "not-a-uuid"
				return in
			},
			setup:       func(sqlmock.Sqlmock) {},
			wantErrCode: commonerrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock := newTestHandler(t)
			tt.setup(mock)

			out, err := h.Execute(context.Background(), tt.input())
			if tt.wantErrCode != "" {
				stdErr, ok := commonerrors.AsStandardError(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantErrCode, stdErr.Code)
			} else {
				require.NoError(t, err)
				tt.validateOutput(t, out)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_NullableColumns(t *testing.T) {
	h, mock := newTestHandler(t)
	h.config.AuditEnabled = false

	in := validInput()
	in.CustomerID = ""
	in.ModelVersion = ""
	in.Strategies = nil

	mock.ExpectExec(regexp.QuoteMeta(insertAssessment)).
		WithArgs(in.AssessmentID, nil, 0.64, "high", []byte(`[]`), sqlmock.AnyArg(), nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentIDForJob(t *testing.T) {
	a := AssessmentIDForJob(2251799813685249)
	assert.Equal(t, a, AssessmentIDForJob(2251799813685249))
	assert.NotEqual(t, a, AssessmentIDForJob(2251799813685250))
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestHandler_Handle(t *testing.T) {
	h, mock := newTestHandler(t)
	job := camundatest.NewJob(42, TaskType, map[string]interface{}{
		"customerId":       "15634602",
		"churnProbability": 0.64,
		"riskTier":         "high",
		"strategies":       []string{"Offer Loyalty Reward Program to increase customer engagement."},
		"features":         features(),
		"modelVersion":     "2024.06-logreg",
	})

	expectInsert(mock, AssessmentIDForJob(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertAudit)).WillReturnResult(sqlmock.NewResult(1, 1))

	client := camundatest.NewJobClient()
	h.Handle(client, job)

	require.Len(t, client.Gateway.Completed, 1)
	var out Output
	require.NoError(t, client.CompletedVariables(0, &out))
	assert.Equal(t, AssessmentIDForJob(42), out.AssessmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
