package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSESClient_SendText(t *testing.T) {
	var got *ses.SendEmailInput
	client := NewSESClientWith(&mockSES{
		SendEmailFunc: func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			got = params
			return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
		},
	})

	id, err := client.SendText(context.Background(), "noreply@bank.test", "am@bank.test", "subject", "body")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "noreply@bank.test", aws.ToString(got.Source))
	assert.Equal(t, []string{"am@bank.test"}, got.Destination.ToAddresses)
	assert.Equal(t, "subject", aws.ToString(got.Message.Subject.Data))
	assert.Equal(t, "body", aws.ToString(got.Message.Body.Text.Data))
	assert.Nil(t, got.Message.Body.Html)
}

func TestSESClient_SendTextError(t *testing.T) {
	client := NewSESClientWith(&mockSES{
		SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	})

	_, err := client.SendText(context.Background(), "a@b.test", "c@d.test", "s", "b")
	assert.ErrorContains(t, err, "throttled")
}

func TestSNSClient_PublishAlert(t *testing.T) {
	var got *sns.PublishInput
	client := NewSNSClientWith(&mockSNS{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			got = params
			return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
		},
	})

	id, err := client.PublishAlert(context.Background(), "arn:aws:sns:us-east-1:1:churn", "High churn risk", "msg", "BANK")
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "arn:aws:sns:us-east-1:1:churn", aws.ToString(got.TopicArn))
	assert.Equal(t, "BANK", aws.ToString(got.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))

	_, err = client.PublishAlert(context.Background(), "arn", "s", "m", "")
	require.NoError(t, err)
	assert.Empty(t, got.MessageAttributes)
}
