// Package scheduler enqueues the weekly report request once per slot.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/queue"
)

// Retry policy for a slot whose request could not be published
const (
	defaultRetryBackoff = 30 * time.Second
	defaultMaxAttempts  = 5
)

// SlotClaimer claims a schedule slot across replicas
type SlotClaimer interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Scheduler publishes a report request for the last full week every
// configured weekday and hour, in UTC
type Scheduler struct {
	publisher  queue.ReportPublisher
	claimer    SlotClaimer
	weekday    time.Weekday
	hour       int
	recipients []string
	backoff    time.Duration
	attempts   int
	now        func() time.Time
	log        *zap.Logger
}

// NewScheduler creates a new weekly scheduler
func NewScheduler(publisher queue.ReportPublisher, claimer SlotClaimer, cfg config.Report, log *zap.Logger) *Scheduler {
	return &Scheduler{
		publisher:  publisher,
		claimer:    claimer,
		weekday:    cfg.ScheduleWeekday,
		hour:       cfg.ScheduleHour,
		recipients: cfg.Recipients,
		backoff:    defaultRetryBackoff,
		attempts:   defaultMaxAttempts,
		now:        time.Now,
		log:        log,
	}
}

// Next returns the first weekday at hour:00 UTC strictly after now
func Next(now time.Time, weekday time.Weekday, hour int) time.Time {
	now = now.UTC()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	for candidate.Weekday() != weekday || !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// LastFullWeek returns the seven days ending at the most recent weekday
// midnight UTC not after at
func LastFullWeek(at time.Time, weekday time.Weekday) domain.Window {
	at = at.UTC()
	end := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	for end.Weekday() != weekday {
		end = end.AddDate(0, 0, -1)
	}
	return domain.Window{Start: end.AddDate(0, 0, -7), End: end}
}

// Start fires on every slot until ctx is done
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		next := Next(s.now(), s.weekday, s.hour)
		s.log.Info("Next weekly report scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Scheduler shutting down")
			return nil
		case <-timer.C:
		}

		if err := s.fireWithRetry(ctx, next); err != nil {
			s.log.Error("Failed to schedule weekly report",
				zap.Time("slot", next),
				zap.Error(err))
		}
	}
}

// fireWithRetry calls Fire until it succeeds, the attempts run out or ctx is
// done, doubling the wait after each failure
func (s *Scheduler) fireWithRetry(ctx context.Context, at time.Time) error {
	backoff := s.backoff
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err = s.Fire(ctx, at); err == nil {
			return nil
		}
		if attempt == s.attempts {
			break
		}

		s.log.Warn("Weekly report not scheduled, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// Fire enqueues the report of the week before at. Only the replica that
// claims the slot publishes.
func (s *Scheduler) Fire(ctx context.Context, at time.Time) error {
	w := LastFullWeek(at, s.weekday)
	slot := domain.ReportID(w.Start, w.End)

	claimed, err := s.claimer.Claim(ctx, slot)
	if err != nil {
		return fmt.Errorf("failed to claim schedule slot: %w", err)
	}
	if !claimed {
		s.log.Info("Weekly report slot already claimed", zap.String("slot", slot))
		return nil
	}

	req := &queue.ReportRequest{
		RequestID:  uuid.NewString(),
		StartDate:  w.Start,
		EndDate:    w.End,
		Recipients: s.recipients,
		Origin:     queue.OriginScheduler,
	}
	if err := s.publisher.PublishReportRequest(ctx, req); err != nil {
		// Another replica or a retry may take the slot once it is released.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		if rErr := s.claimer.Release(releaseCtx, slot); rErr != nil {
			s.log.Warn("Failed to release schedule slot", zap.String("slot", slot), zap.Error(rErr))
		}
		cancel()
		return fmt.Errorf("failed to publish weekly report request: %w", err)
	}

	s.log.Info("Weekly report requested",
		zap.String("request_id", req.RequestID),
		zap.String("slot", slot))
	return nil
}
