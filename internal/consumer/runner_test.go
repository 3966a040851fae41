package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/notify"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue"
)

// MockReportGenerator is a mock implementation of ReportGenerator
type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) GenerateReport(ctx context.Context, start, end time.Time, recipients []string) (string, error) {
	args := m.Called(ctx, start, end, recipients)
	return args.String(0), args.Error(1)
}

type ackRecorder struct {
	acks  int
	nacks int
}

func (r *ackRecorder) envelope(req *queue.ReportRequest) *Envelope {
	return NewEnvelope(req,
		func(context.Context) error { r.acks++; return nil },
		func(context.Context) error { r.nacks++; return nil })
}

func runOne(t *testing.T, generator ReportGenerator, envelope *Envelope) {
	t.Helper()
	runner := NewRunner(generator, time.Second, zap.NewNop())
	in := make(chan *Envelope, 1)
	in <- envelope
	close(in)
	runner.Start(context.Background(), in)
}

func TestRunner_Start_AcksOnSuccess(t *testing.T) {
	generator := new(MockReportGenerator)
	recipients := []string{"ops@example.com"}
	generator.On("GenerateReport", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), testStart, testEnd, recipients).Return("report-1", nil)

	rec := &ackRecorder{}
	runOne(t, generator, rec.envelope(&queue.ReportRequest{
		RequestID:  "req-1",
		StartDate:  testStart,
		EndDate:    testEnd,
		Recipients: recipients,
	}))

	generator.AssertExpectations(t)
	assert.Equal(t, 1, rec.acks)
	assert.Zero(t, rec.nacks)
}

func TestRunner_Start_AcksInvalidRequest(t *testing.T) {
	generator := new(MockReportGenerator)
	generator.On("GenerateReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", &domain.ValidationError{Field: "window", Reason: "start_date must be before end_date"})

	rec := &ackRecorder{}
	runOne(t, generator, rec.envelope(&queue.ReportRequest{RequestID: "req-1", StartDate: testEnd, EndDate: testStart}))

	assert.Equal(t, 1, rec.acks)
	assert.Zero(t, rec.nacks)
}

func TestRunner_Start_NacksOnFailure(t *testing.T) {
	generator := new(MockReportGenerator)
	generator.On("GenerateReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", &domain.PersistenceError{Op: "save report", Err: errors.New("connection refused")})

	rec := &ackRecorder{}
	runOne(t, generator, rec.envelope(&queue.ReportRequest{RequestID: "req-1", StartDate: testStart, EndDate: testEnd}))

	assert.Zero(t, rec.acks)
	assert.Equal(t, 1, rec.nacks)
}

func TestRunner_Start_AcksUnconfirmedDelivery(t *testing.T) {
	generator := new(MockReportGenerator)
	sendErr := fmt.Errorf("failed to send mail: %w: %w", notify.ErrDeliveryUnconfirmed, context.DeadlineExceeded)
	generator.On("GenerateReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("report-1", fmt.Errorf("failed to deliver report: %w", sendErr))

	rec := &ackRecorder{}
	runOne(t, generator, rec.envelope(&queue.ReportRequest{RequestID: "req-1", StartDate: testStart, EndDate: testEnd}))

	assert.Equal(t, 1, rec.acks)
	assert.Zero(t, rec.nacks)
}

func TestRunner_Start_NacksFailedDelivery(t *testing.T) {
	generator := new(MockReportGenerator)
	generator.On("GenerateReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("report-1", fmt.Errorf("failed to deliver report: %w", errors.New("550 mailbox unavailable")))

	rec := &ackRecorder{}
	runOne(t, generator, rec.envelope(&queue.ReportRequest{RequestID: "req-1", StartDate: testStart, EndDate: testEnd}))

	assert.Zero(t, rec.acks)
	assert.Equal(t, 1, rec.nacks)
}

func TestRunner_Start_ContextCancellation(t *testing.T) {
	generator := new(MockReportGenerator)
	runner := NewRunner(generator, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		runner.Start(ctx, make(chan *Envelope))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Runner did not stop after context cancellation")
	}
	generator.AssertNotCalled(t, "GenerateReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
