package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/notify"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/profile"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/memory"
)

var (
	weekStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd   = weekStart.AddDate(0, 0, 7)
)

// MockChannel is a mock implementation of notify.Channel
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) QueryAcquisition(ctx context.Context, w domain.Window) ([]domain.AttributionRecord, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttributionRecord), args.Error(1)
}

func (m *MockStore) QueryActivation(ctx context.Context, w domain.Window) ([]domain.LifecycleProfile, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LifecycleProfile), args.Error(1)
}

func (m *MockStore) QueryRevenue(ctx context.Context, w domain.Window) ([]domain.RevenueRecord, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RevenueRecord), args.Error(1)
}

func (m *MockStore) PreviousReport(ctx context.Context, w domain.Window) (*domain.WeeklyReport, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WeeklyReport), args.Error(1)
}

func (m *MockStore) SaveReport(ctx context.Context, report *domain.WeeklyReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func newProfileStore() *profile.Store {
	return profile.NewStore(memory.NewRepository(), time.Second, zap.NewNop())
}

func TestAggregator_GenerateReport_EmptyAcquisitionSection(t *testing.T) {
	store := newProfileStore()
	ctx := context.Background()

	_, err := store.UpsertActivationProfile(ctx, "user-1", domain.ScoredActivation{Subtype: "demo_completed", Score: 50, Timestamp: weekStart.Add(time.Hour)})
	require.NoError(t, err)

	channel := new(MockChannel)
	channel.On("Send", mock.Anything, mock.MatchedBy(func(msg notify.Message) bool {
		return msg.Subject == "Lifecycle report 2026-03-02 to 2026-03-09" &&
			assert.ObjectsAreEqual([]string{"ops@example.com"}, msg.Recipients)
	})).Return(nil).Once()

	agg := NewAggregator(store, channel, nil, zap.NewNop())

	reportID, err := agg.GenerateReport(ctx, weekStart, weekEnd, []string{"ops@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportID(weekStart, weekEnd), reportID)

	saved, err := store.GetReport(ctx, reportID)
	require.NoError(t, err)
	assert.Equal(t, domain.SectionEmpty, saved.Acquisition.Status)
	assert.Zero(t, saved.Acquisition.Total)
	assert.Equal(t, domain.SectionOK, saved.Activation.Status)
	assert.Equal(t, 50, saved.Activation.TotalScore)
	assert.Equal(t, domain.SectionEmpty, saved.Conversion.Status)
	assert.Empty(t, saved.Summary.UnavailableData)
	assert.Nil(t, saved.Summary.Deltas)

	channel.AssertExpectations(t)
	body := channel.Calls[0].Arguments.Get(1).(notify.Message).Body
	assert.Contains(t, body, "ACQUISITION\n  No data for this period.")
}

func TestAggregator_GenerateReport_SectionDegrades(t *testing.T) {
	store := new(MockStore)
	store.On("QueryAcquisition", mock.Anything, mock.Anything).Return([]domain.AttributionRecord{
		{ID: "a-1", Source: "google", Timestamp: weekStart},
	}, nil)
	store.On("QueryActivation", mock.Anything, mock.Anything).Return([]domain.LifecycleProfile{}, nil)
	store.On("QueryRevenue", mock.Anything, mock.Anything).Return(nil, errors.New("ledger offline"))
	store.On("PreviousReport", mock.Anything, mock.Anything).Return(nil, nil)

	var saved *domain.WeeklyReport
	store.On("SaveReport", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.WeeklyReport) }).
		Return(nil)

	agg := NewAggregator(store, new(MockChannel), nil, zap.NewNop())

	_, err := agg.GenerateReport(context.Background(), weekStart, weekEnd, nil)
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, domain.SectionOK, saved.Acquisition.Status)
	assert.Equal(t, 1, saved.Acquisition.Total)
	assert.Equal(t, domain.SectionUnavailable, saved.Conversion.Status)
	assert.Contains(t, saved.Conversion.Reason, "ledger offline")
	assert.Equal(t, domain.SectionEmpty, saved.Activation.Status)
	assert.Equal(t, []string{"conversion"}, saved.Summary.UnavailableData)
	assert.Zero(t, saved.Summary.ConversionRate)
}

func TestAggregator_GenerateReport_QueryPanicDegrades(t *testing.T) {
	store := new(MockStore)
	store.On("QueryAcquisition", mock.Anything, mock.Anything).Return([]domain.AttributionRecord{}, nil)
	store.On("QueryActivation", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("corrupt profile index") }).
		Return(nil, nil)
	store.On("QueryRevenue", mock.Anything, mock.Anything).Return([]domain.RevenueRecord{}, nil)
	store.On("PreviousReport", mock.Anything, mock.Anything).Return(nil, nil)

	var saved *domain.WeeklyReport
	store.On("SaveReport", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.WeeklyReport) }).
		Return(nil)

	agg := NewAggregator(store, new(MockChannel), nil, zap.NewNop())

	_, err := agg.GenerateReport(context.Background(), weekStart, weekEnd, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.SectionUnavailable, saved.Activation.Status)
	assert.Equal(t, domain.SectionUnavailable, saved.Engagement.Status)
	assert.Contains(t, saved.Activation.Reason, "corrupt profile index")
	assert.Equal(t, domain.SectionEmpty, saved.Acquisition.Status)
	assert.Equal(t, []string{"activation", "engagement"}, saved.Summary.UnavailableData)
}

func TestAggregator_GenerateReport_DeltasAgainstPreviousWeek(t *testing.T) {
	store := newProfileStore()
	ctx := context.Background()

	prevStart := weekStart.AddDate(0, 0, -7)
	prior := &domain.WeeklyReport{ID: domain.ReportID(prevStart, weekStart), StartDate: prevStart, EndDate: weekStart}
	prior.Summary.Acquisitions = 2
	prior.Summary.Revenue = map[string]float64{"USD": 100}
	require.NoError(t, store.SaveReport(ctx, prior))

	for _, id := range []string{"a-1", "a-2", "a-3"} {
		require.NoError(t, store.RecordAcquisition(ctx, domain.AttributionRecord{ID: id, Source: "google", Timestamp: weekStart.Add(time.Hour)}))
	}
	require.NoError(t, store.RecordRevenue(ctx, domain.RevenueRecord{ID: "r-1", Amount: 150, ConversionType: "pro_plan", Timestamp: weekStart.Add(time.Hour)}))

	agg := NewAggregator(store, new(MockChannel), nil, zap.NewNop())

	reportID, err := agg.GenerateReport(ctx, weekStart, weekEnd, nil)
	require.NoError(t, err)

	saved, err := store.GetReport(ctx, reportID)
	require.NoError(t, err)

	assert.Equal(t, prior.ID, saved.Summary.PreviousReport)

	acq := saved.Summary.Deltas[MetricAcquisitions]
	assert.Equal(t, 3.0, acq.Current)
	assert.Equal(t, 1.0, acq.Change)
	require.NotNil(t, acq.Percent)
	assert.Equal(t, 50.0, *acq.Percent)

	rev := saved.Summary.Deltas[RevenueMetric("USD")]
	require.NotNil(t, rev.Percent)
	assert.Equal(t, 50.0, *rev.Percent)

	conv := saved.Summary.Deltas[MetricConversions]
	assert.Nil(t, conv.Percent)
	assert.Equal(t, 1.0, conv.Change)

	assert.Equal(t, 33.33, saved.Summary.ConversionRate)
}

func TestAggregator_GenerateReport_DeliveryFailure(t *testing.T) {
	store := newProfileStore()
	channel := new(MockChannel)
	channel.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp: 421 service not available"))

	agg := NewAggregator(store, channel, nil, zap.NewNop())

	reportID, err := agg.GenerateReport(context.Background(), weekStart, weekEnd, []string{"ops@example.com"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to deliver report")
	assert.Equal(t, domain.ReportID(weekStart, weekEnd), reportID)

	_, getErr := store.GetReport(context.Background(), reportID)
	assert.NoError(t, getErr, "snapshot is stored before delivery")
}

func TestAggregator_GenerateReport_SaveFailure(t *testing.T) {
	store := new(MockStore)
	store.On("QueryAcquisition", mock.Anything, mock.Anything).Return([]domain.AttributionRecord{}, nil)
	store.On("QueryActivation", mock.Anything, mock.Anything).Return([]domain.LifecycleProfile{}, nil)
	store.On("QueryRevenue", mock.Anything, mock.Anything).Return([]domain.RevenueRecord{}, nil)
	store.On("PreviousReport", mock.Anything, mock.Anything).Return(nil, nil)
	store.On("SaveReport", mock.Anything, mock.Anything).
		Return(&domain.PersistenceError{Op: "save report", Err: errors.New("disk full")})

	channel := new(MockChannel)
	agg := NewAggregator(store, channel, nil, zap.NewNop())

	_, err := agg.GenerateReport(context.Background(), weekStart, weekEnd, []string{"ops@example.com"})

	var pErr *domain.PersistenceError
	assert.True(t, errors.As(err, &pErr))
	channel.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestAggregator_GenerateReport_InvalidWindow(t *testing.T) {
	store := new(MockStore)
	agg := NewAggregator(store, new(MockChannel), nil, zap.NewNop())

	_, err := agg.GenerateReport(context.Background(), weekEnd, weekStart, nil)

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "window", vErr.Field)
	store.AssertNotCalled(t, "QueryAcquisition", mock.Anything, mock.Anything)
}
