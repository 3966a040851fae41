package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Consumer: config.Consumer{
			MaxMessages:        10,
			WaitTimeSeconds:    20,
			RetryVisibilitySec: 30,
		},
		Report: config.Report{
			GenerationTimeout: time.Second,
		},
	}
}

func TestConsumer_Start_PipelineCoordination(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	generator := new(MockReportGenerator)

	mockConsumer.On("QueueURL").Return(testQueueURL)

	body := `{"request_id":"req-1","start_date":"2026-03-02T00:00:00Z","end_date":"2026-03-09T00:00:00Z","origin":"scheduler"}`
	messages := []types.Message{
		{MessageId: aws.String("msg-1"), Body: aws.String(body), ReceiptHandle: aws.String("receipt-1")},
	}

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil)

	generator.On("GenerateReport", mock.Anything,
		mock.MatchedBy(func(ts time.Time) bool { return ts.Equal(testStart) }),
		mock.MatchedBy(func(ts time.Time) bool { return ts.Equal(testEnd) }),
		mock.Anything).Return("report-1", nil)

	consumer := NewConsumer(testConfig(), mockConsumer, generator, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := consumer.Start(ctx)

	assert.NoError(t, err)
	generator.AssertExpectations(t)
	mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
}

func TestConsumer_Start_GracefulShutdown(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	generator := new(MockReportGenerator)

	mockConsumer.On("QueueURL").Return(testQueueURL).Maybe()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	consumer := NewConsumer(testConfig(), mockConsumer, generator, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Graceful shutdown took too long")
	}
	generator.AssertNotCalled(t, "GenerateReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConsumer_NewConsumer_ComponentInitialization(t *testing.T) {
	consumer := NewConsumer(testConfig(), new(MockQueueConsumer), new(MockReportGenerator), zap.NewNop())

	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.receiver)
	assert.NotNil(t, consumer.parser)
	assert.NotNil(t, consumer.runner)
	assert.Equal(t, int32(30), consumer.parser.retryVisibilitySec)
	assert.Equal(t, time.Second, consumer.runner.timeout)
}
