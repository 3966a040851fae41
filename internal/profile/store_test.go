package profile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/memory"
)

var weekStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func week() domain.Window {
	return domain.Window{Start: weekStart, End: weekStart.AddDate(0, 0, 7)}
}

// MockDocumentStore is a mock implementation of repository.DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Insert(ctx context.Context, collection string, doc repository.Document) error {
	args := m.Called(ctx, collection, doc)
	return args.Error(0)
}

func (m *MockDocumentStore) Get(ctx context.Context, collection, key string) (*repository.Document, error) {
	args := m.Called(ctx, collection, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Document), args.Error(1)
}

func (m *MockDocumentStore) Upsert(ctx context.Context, collection string, doc repository.Document) error {
	args := m.Called(ctx, collection, doc)
	return args.Error(0)
}

func (m *MockDocumentStore) Query(ctx context.Context, collection string, filter repository.Filter) ([]repository.Document, error) {
	args := m.Called(ctx, collection, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Document), args.Error(1)
}

func (m *MockDocumentStore) InitSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDocumentStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDocumentStore) Close() error {
	return m.Called().Error(0)
}

func newMemoryStore() *Store {
	return NewStore(memory.NewRepository(), time.Second, zap.NewNop())
}

func TestStore_UpsertActivationProfile_CreatesAndAccumulates(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	_, err := store.UpsertActivationProfile(ctx, "user-1", domain.ScoredActivation{Subtype: "demo_started", Score: 10, Timestamp: weekStart.Add(time.Hour)})
	require.NoError(t, err)
	p, err := store.UpsertActivationProfile(ctx, "user-1", domain.ScoredActivation{Subtype: "demo_completed", Score: 66, Timestamp: weekStart.Add(2 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 76, p.TotalActivationScore)

	stored, err := store.Profile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 76, stored.TotalActivationScore)
	require.Len(t, stored.ActivationEvents, 2)
	assert.Equal(t, "demo_completed", stored.ActivationEvents[1].Subtype)
	assert.True(t, weekStart.Add(time.Hour).Equal(*stored.FirstActivation))
	assert.True(t, weekStart.Add(2*time.Hour).Equal(*stored.LastActivation))
}

func TestStore_UpsertActivationProfile_ConcurrentSameUserRaces(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpsertActivationProfile(ctx, "user-race", domain.ScoredActivation{Subtype: "demo_started", Score: 10, Timestamp: weekStart})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := store.Profile(ctx, "user-race")
	require.NoError(t, err)
	assert.Contains(t, []int{10, 20}, p.TotalActivationScore)
	assert.Equal(t, len(p.ActivationEvents)*10, p.TotalActivationScore)
}

func TestStore_UpsertActivationProfile_ReadFailure(t *testing.T) {
	docs := new(MockDocumentStore)
	docs.On("Get", mock.Anything, repository.CollectionProfiles, "user-1").Return(nil, errors.New("connection reset"))

	store := NewStore(docs, time.Second, zap.NewNop())
	_, err := store.UpsertActivationProfile(context.Background(), "user-1", domain.ScoredActivation{Score: 10})

	var pErr *domain.PersistenceError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, "upsert activation profile", pErr.Op)
	docs.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_Calls_AreBoundedByTimeout(t *testing.T) {
	docs := new(MockDocumentStore)
	docs.On("Insert", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), repository.CollectionRevenue, mock.Anything).Return(nil)

	store := NewStore(docs, 50*time.Millisecond, zap.NewNop())
	require.NoError(t, store.RecordRevenue(context.Background(), domain.RevenueRecord{ID: "r-1", Amount: 10, Timestamp: weekStart}))
	docs.AssertExpectations(t)
}

func TestStore_AppendEngagement(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()

	_, err := store.AppendEngagement(ctx, "user-2", domain.EngagementEntry{Subtype: domain.EngagementChatbot, Quality: 100, Timestamp: weekStart})
	require.NoError(t, err)

	p, err := store.Profile(ctx, "user-2")
	require.NoError(t, err)
	assert.Zero(t, p.TotalActivationScore)
	require.Len(t, p.EngagementHistory, 1)
	assert.Equal(t, 100, p.EngagementHistory[0].Quality)
}

func TestStore_QueryWindows(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	w := week()

	require.NoError(t, store.RecordAcquisition(ctx, domain.AttributionRecord{ID: "a-before", Source: "google", Timestamp: weekStart.Add(-time.Minute)}))
	require.NoError(t, store.RecordAcquisition(ctx, domain.AttributionRecord{ID: "a-in", Source: "google", Timestamp: weekStart}))
	require.NoError(t, store.RecordAcquisition(ctx, domain.AttributionRecord{ID: "a-after", Source: "bing", Timestamp: w.End}))
	require.NoError(t, store.RecordRevenue(ctx, domain.RevenueRecord{ID: "r-in", Amount: 99, Timestamp: weekStart.Add(48 * time.Hour)}))

	_, err := store.UpsertActivationProfile(ctx, "old", domain.ScoredActivation{Subtype: "demo_started", Score: 10, Timestamp: weekStart.AddDate(0, 0, -14)})
	require.NoError(t, err)
	_, err = store.UpsertActivationProfile(ctx, "mixed", domain.ScoredActivation{Subtype: "demo_started", Score: 10, Timestamp: weekStart.AddDate(0, 0, -14)})
	require.NoError(t, err)
	_, err = store.UpsertActivationProfile(ctx, "mixed", domain.ScoredActivation{Subtype: "demo_completed", Score: 50, Timestamp: weekStart.Add(time.Hour)})
	require.NoError(t, err)

	acquisitions, err := store.QueryAcquisition(ctx, w)
	require.NoError(t, err)
	require.Len(t, acquisitions, 1)
	assert.Equal(t, "a-in", acquisitions[0].ID)

	revenue, err := store.QueryRevenue(ctx, w)
	require.NoError(t, err)
	require.Len(t, revenue, 1)
	assert.Equal(t, 99.0, revenue[0].Amount)

	profiles, err := store.QueryActivation(ctx, w)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "mixed", profiles[0].UserID)
	assert.Equal(t, 50, profiles[0].TotalActivationScore)
}

func TestStore_Reports(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	w := week()
	prev := w.Previous()

	none, err := store.PreviousReport(ctx, w)
	require.NoError(t, err)
	assert.Nil(t, none)

	prior := &domain.WeeklyReport{ID: domain.ReportID(prev.Start, prev.End), StartDate: prev.Start, EndDate: prev.End}
	prior.Summary.Acquisitions = 4
	require.NoError(t, store.SaveReport(ctx, prior))

	got, err := store.PreviousReport(ctx, w)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Summary.Acquisitions)

	_, err = store.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
