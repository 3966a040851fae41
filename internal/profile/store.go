// Package profile persists lifecycle profiles, attribution records, the
// revenue ledger and report snapshots on a document store.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
)

// Store is the profile store. Profile upserts are read-modify-write and are
// not atomic: concurrent updates for one user are last-write-wins.
type Store struct {
	docs    repository.DocumentStore
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

// NewStore creates a profile store. Every call is bounded by timeout.
func NewStore(docs repository.DocumentStore, timeout time.Duration, log *zap.Logger) *Store {
	return &Store{
		docs:    docs,
		timeout: timeout,
		now:     time.Now,
		log:     log,
	}
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func persistenceError(op string, err error) error {
	return &domain.PersistenceError{Op: op, Err: err}
}

// RecordAcquisition writes an attribution record once
func (s *Store) RecordAcquisition(ctx context.Context, rec domain.AttributionRecord) error {
	return s.insert(ctx, "record acquisition", repository.CollectionAttribution, rec.ID, rec.Timestamp, rec)
}

// RecordRevenue writes a revenue ledger line once
func (s *Store) RecordRevenue(ctx context.Context, rec domain.RevenueRecord) error {
	return s.insert(ctx, "record revenue", repository.CollectionRevenue, rec.ID, rec.Timestamp, rec)
}

func (s *Store) insert(ctx context.Context, op, collection, key string, ts time.Time, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return persistenceError(op, err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.docs.Insert(ctx, collection, repository.Document{Key: key, Timestamp: ts, Body: body}); err != nil {
		return persistenceError(op, err)
	}
	return nil
}

// UpsertActivationProfile appends a scored activation to the user's profile
// and adds its score to the running total in the same write.
func (s *Store) UpsertActivationProfile(ctx context.Context, userID string, act domain.ScoredActivation) (*domain.LifecycleProfile, error) {
	return s.update(ctx, "upsert activation profile", userID, act.Timestamp, func(p *domain.LifecycleProfile) {
		p.AddActivation(act)
	})
}

// AppendEngagement appends an engagement entry to the user's profile
func (s *Store) AppendEngagement(ctx context.Context, userID string, entry domain.EngagementEntry) (*domain.LifecycleProfile, error) {
	return s.update(ctx, "append engagement", userID, entry.Timestamp, func(p *domain.LifecycleProfile) {
		p.AddEngagement(entry)
	})
}

func (s *Store) update(ctx context.Context, op, userID string, eventTime time.Time, apply func(*domain.LifecycleProfile)) (*domain.LifecycleProfile, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, persistenceError(op, err)
	}

	apply(p)

	// The document timestamp never trails an event it contains so window
	// queries starting before the event always see the profile.
	p.UpdatedAt = s.now().UTC()
	if eventTime.After(p.UpdatedAt) {
		p.UpdatedAt = eventTime.UTC()
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, persistenceError(op, err)
	}

	if err := s.docs.Upsert(ctx, repository.CollectionProfiles, repository.Document{Key: userID, Timestamp: p.UpdatedAt, Body: body}); err != nil {
		return nil, persistenceError(op, err)
	}
	return p, nil
}

func (s *Store) load(ctx context.Context, userID string) (*domain.LifecycleProfile, error) {
	doc, err := s.docs.Get(ctx, repository.CollectionProfiles, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.LifecycleProfile{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}

	var p domain.LifecycleProfile
	if err := json.Unmarshal(doc.Body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Profile returns the stored profile of a user
func (s *Store) Profile(ctx context.Context, userID string) (*domain.LifecycleProfile, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	doc, err := s.docs.Get(ctx, repository.CollectionProfiles, userID)
	if err != nil {
		return nil, persistenceError("get profile", err)
	}

	var p domain.LifecycleProfile
	if err := json.Unmarshal(doc.Body, &p); err != nil {
		return nil, persistenceError("decode profile", err)
	}
	return &p, nil
}

// QueryAcquisition returns attribution records created in the window
func (s *Store) QueryAcquisition(ctx context.Context, w domain.Window) ([]domain.AttributionRecord, error) {
	return queryWindow[domain.AttributionRecord](ctx, s, "query acquisition", repository.CollectionAttribution, w)
}

// QueryRevenue returns revenue records created in the window
func (s *Store) QueryRevenue(ctx context.Context, w domain.Window) ([]domain.RevenueRecord, error) {
	return queryWindow[domain.RevenueRecord](ctx, s, "query revenue", repository.CollectionRevenue, w)
}

// QueryActivation returns the profiles touched since the window start with
// their activation and engagement history trimmed to the window. Profiles with
// no entries in the window are dropped.
func (s *Store) QueryActivation(ctx context.Context, w domain.Window) ([]domain.LifecycleProfile, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	docs, err := s.docs.Query(ctx, repository.CollectionProfiles, repository.Filter{From: w.Start})
	if err != nil {
		return nil, persistenceError("query activation", err)
	}

	profiles := make([]domain.LifecycleProfile, 0, len(docs))
	for _, doc := range docs {
		var p domain.LifecycleProfile
		if err := json.Unmarshal(doc.Body, &p); err != nil {
			s.log.Warn("Skipping undecodable profile",
				zap.String("user_id", doc.Key),
				zap.Error(err))
			continue
		}

		trimmed := domain.LifecycleProfile{UserID: p.UserID, UpdatedAt: p.UpdatedAt}
		for _, a := range p.ActivationEvents {
			if w.Contains(a.Timestamp) {
				trimmed.AddActivation(a)
			}
		}
		for _, e := range p.EngagementHistory {
			if w.Contains(e.Timestamp) {
				trimmed.AddEngagement(e)
			}
		}
		if len(trimmed.ActivationEvents) == 0 && len(trimmed.EngagementHistory) == 0 {
			continue
		}
		profiles = append(profiles, trimmed)
	}
	return profiles, nil
}

func queryWindow[T any](ctx context.Context, s *Store, op, collection string, w domain.Window) ([]T, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	docs, err := s.docs.Query(ctx, collection, repository.Filter{From: w.Start, To: w.End})
	if err != nil {
		return nil, persistenceError(op, err)
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc.Body, &v); err != nil {
			s.log.Warn("Skipping undecodable document",
				zap.String("collection", collection),
				zap.String("key", doc.Key),
				zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// SaveReport stores a report snapshot under its window key. Snapshots are
// write-once; saving a window again keeps the first snapshot.
func (s *Store) SaveReport(ctx context.Context, report *domain.WeeklyReport) error {
	return s.insert(ctx, "save report", repository.CollectionReports, report.ID, report.StartDate, report)
}

// GetReport returns a stored snapshot. A missing report wraps repository.ErrNotFound.
func (s *Store) GetReport(ctx context.Context, id string) (*domain.WeeklyReport, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	doc, err := s.docs.Get(ctx, repository.CollectionReports, id)
	if err != nil {
		return nil, persistenceError("get report", err)
	}

	var report domain.WeeklyReport
	if err := json.Unmarshal(doc.Body, &report); err != nil {
		return nil, persistenceError("decode report", err)
	}
	return &report, nil
}

// PreviousReport returns the snapshot of the equal-length window ending at
// w.Start, or nil when none was generated.
func (s *Store) PreviousReport(ctx context.Context, w domain.Window) (*domain.WeeklyReport, error) {
	prev := w.Previous()
	report, err := s.GetReport(ctx, domain.ReportID(prev.Start, prev.End))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return report, err
}
