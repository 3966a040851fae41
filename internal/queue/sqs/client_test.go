package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue"
)

// MockAPI is a mock implementation of API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func (m *MockAPI) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockAPI) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}

func (m *MockAPI) ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ChangeMessageVisibilityOutput), args.Error(1)
}

func TestClient_PublishReportRequest_Success(t *testing.T) {
	api := new(MockAPI)
	client := NewClientWithAPI(api, "http://localhost:9324/queue/reports", zap.NewNop())

	req := &queue.ReportRequest{
		RequestID:  "req-1",
		StartDate:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Recipients: []string{"growth@example.com"},
		Origin:     queue.OriginAPI,
	}

	var sent *sqs.SendMessageInput
	api.On("SendMessage", mock.Anything, mock.AnythingOfType("*sqs.SendMessageInput")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*sqs.SendMessageInput) }).
		Return(&sqs.SendMessageOutput{}, nil)

	require.NoError(t, client.PublishReportRequest(context.Background(), req))

	require.NotNil(t, sent)
	assert.Equal(t, "http://localhost:9324/queue/reports", aws.ToString(sent.QueueUrl))
	assert.Equal(t, queue.OriginAPI, aws.ToString(sent.MessageAttributes["Origin"].StringValue))

	var decoded queue.ReportRequest
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(sent.MessageBody)), &decoded))
	assert.Equal(t, "req-1", decoded.RequestID)
	assert.True(t, req.StartDate.Equal(decoded.StartDate))
	api.AssertExpectations(t)
}

func TestClient_PublishReportRequest_SendError(t *testing.T) {
	api := new(MockAPI)
	client := NewClientWithAPI(api, "q", zap.NewNop())
	api.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := client.PublishReportRequest(context.Background(), &queue.ReportRequest{RequestID: "req-1"})

	assert.ErrorContains(t, err, "failed to send message to SQS")
}
