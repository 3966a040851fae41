package service

import (
	"context"
	"time"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/sink"
)

// ProfileStore is the durable side of the dispatcher
type ProfileStore interface {
	RecordAcquisition(ctx context.Context, rec domain.AttributionRecord) error
	UpsertActivationProfile(ctx context.Context, userID string, act domain.ScoredActivation) (*domain.LifecycleProfile, error)
	AppendEngagement(ctx context.Context, userID string, entry domain.EngagementEntry) (*domain.LifecycleProfile, error)
	RecordRevenue(ctx context.Context, rec domain.RevenueRecord) error
}

// SinkDispatcher starts a concurrent delivery to every analytics sink
type SinkDispatcher interface {
	Start(ctx context.Context, eventName string, props sink.Properties) <-chan []sink.Outcome
}

// IdempotencyGuard claims event IDs so a retried event is applied once
type IdempotencyGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Tracker defines the tracking operations exposed to the HTTP layer
type Tracker interface {
	TrackAcquisition(ctx context.Context, ev domain.AcquisitionEvent) Result
	TrackActivation(ctx context.Context, ev domain.ActivationEvent) Result
	TrackConversion(ctx context.Context, ev domain.ConversionEvent) Result
	TrackEngagement(ctx context.Context, ev domain.EngagementEvent) Result
}

// ReportReader reads stored report snapshots
type ReportReader interface {
	GetReport(ctx context.Context, id string) (*domain.WeeklyReport, error)
}

// Reporter defines the report operations exposed to the HTTP layer
type Reporter interface {
	RequestReport(ctx context.Context, start, end time.Time, recipients []string) (string, error)
	GetReport(ctx context.Context, id string) (*domain.WeeklyReport, error)
}
