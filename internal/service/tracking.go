package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/idempotency"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/scoring"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/sink"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/telemetry"
)

const defaultCurrency = "USD"

// Result is the outcome of a tracking call. Sink failures are reported in
// Sinks and never flip Success.
type Result struct {
	Success   bool
	EventID   string
	Stage     domain.Stage
	Score     *int
	Level     string
	Duplicate bool
	Sinks     []sink.Outcome
	Err       error
}

// TrackingService dispatches lifecycle events to the scorer, the analytics
// sinks and the profile store
type TrackingService struct {
	store   ProfileStore
	sinks   SinkDispatcher
	guard   IdempotencyGuard
	cfg     config.Tracking
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	now     func() time.Time
	log     *zap.Logger
}

// NewTrackingService creates a new tracking service
func NewTrackingService(store ProfileStore, sinks SinkDispatcher, guard IdempotencyGuard, cfg config.Tracking, metrics *telemetry.Metrics, log *zap.Logger) *TrackingService {
	if metrics == nil {
		metrics = telemetry.NoopMetrics()
	}
	if guard == nil {
		guard = idempotency.Noop{}
	}
	return &TrackingService{
		store:   store,
		sinks:   sinks,
		guard:   guard,
		cfg:     cfg,
		metrics: metrics,
		tracer:  telemetry.Tracer(),
		now:     time.Now,
		log:     log,
	}
}

// computeEventID generates a deterministic event ID based on event content
// Uses SHA-256 hash of: stage|user_id|discriminators...|timestamp. Callers pass
// every scored input so two distinct events never share an ID.
func computeEventID(stage domain.Stage, userID string, ts time.Time, parts ...string) string {
	fields := make([]string, 0, len(parts)+3)
	fields = append(fields, string(stage), userID)
	fields = append(fields, parts...)
	fields = append(fields, strconv.FormatInt(ts.UnixNano(), 10))

	hash := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(hash[:])
}

// canonical encodes an event payload for computeEventID
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", err)
	}
	return string(b)
}

// job is one validated and scored event ready for side effects
type job struct {
	stage     domain.Stage
	userID    string
	eventID   string
	eventName string
	props     sink.Properties
	persist   func(ctx context.Context) error
}

// TrackAcquisition records how a visitor arrived
func (s *TrackingService) TrackAcquisition(ctx context.Context, ev domain.AcquisitionEvent) (res Result) {
	res.Stage = domain.StageAcquisition
	ctx, span := s.tracer.Start(ctx, "TrackingService.TrackAcquisition")
	defer span.End()
	defer s.recoverPanic(ctx, span, &res)

	if err := ev.Validate(); err != nil {
		return s.fail(ctx, span, res, err)
	}

	ts := s.eventTime(ev.Timestamp)
	res.EventID = computeEventID(res.Stage, ev.User.UserID, ts,
		ev.Source, ev.Medium, ev.Campaign, ev.Content, ev.Referrer, ev.UserAgent, ev.LandingPage)

	rec := domain.AttributionRecord{
		ID:          res.EventID,
		UserID:      ev.User.UserID,
		Source:      ev.Source,
		Medium:      ev.Medium,
		Campaign:    ev.Campaign,
		Content:     ev.Content,
		Referrer:    ev.Referrer,
		UserAgent:   ev.UserAgent,
		LandingPage: ev.LandingPage,
		Timestamp:   ts,
	}

	props := s.baseProperties(ev.User, res.EventID, ts)
	props["source"] = ev.Source
	props["medium"] = ev.Medium
	props["campaign"] = ev.Campaign
	props["content"] = ev.Content
	props["referrer"] = ev.Referrer
	props["landing_page"] = ev.LandingPage

	return s.run(ctx, span, res, job{
		stage:     res.Stage,
		userID:    ev.User.UserID,
		eventID:   res.EventID,
		eventName: "user_acquired",
		props:     props,
		persist: func(ctx context.Context) error {
			return s.store.RecordAcquisition(ctx, rec)
		},
	})
}

// TrackActivation scores an activation and adds it to the user's profile
func (s *TrackingService) TrackActivation(ctx context.Context, ev domain.ActivationEvent) (res Result) {
	res.Stage = domain.StageActivation
	ctx, span := s.tracer.Start(ctx, "TrackingService.TrackActivation")
	defer span.End()
	defer s.recoverPanic(ctx, span, &res)

	if err := ev.Validate(); err != nil {
		return s.fail(ctx, span, res, err)
	}

	score := scoring.ActivationScore(ev.Subtype, ev.Context)
	res.Score = &score
	res.Level = scoring.ActivationLevel(score)

	if !scoring.KnownActivation(ev.Subtype) {
		s.log.Warn("Unknown activation subtype, scoring zero",
			zap.String("subtype", ev.Subtype),
			zap.String("user_id", ev.User.UserID))
	}

	ts := s.eventTime(ev.Timestamp)
	res.EventID = computeEventID(res.Stage, ev.User.UserID, ts, ev.Subtype, canonical(ev.Context))

	props := s.baseProperties(ev.User, res.EventID, ts)
	props["subtype"] = ev.Subtype
	props["score"] = score
	props["level"] = res.Level
	props["completion_rate"] = ev.Context.CompletionRate
	props["time_spent_ms"] = ev.Context.TimeSpentMs

	return s.run(ctx, span, res, job{
		stage:     res.Stage,
		userID:    ev.User.UserID,
		eventID:   res.EventID,
		eventName: "activation_" + ev.Subtype,
		props:     props,
		persist: func(ctx context.Context) error {
			_, err := s.store.UpsertActivationProfile(ctx, ev.User.UserID, domain.ScoredActivation{
				Subtype:   ev.Subtype,
				Score:     score,
				Timestamp: ts,
			})
			return err
		},
	})
}

// TrackConversion writes a revenue ledger line
func (s *TrackingService) TrackConversion(ctx context.Context, ev domain.ConversionEvent) (res Result) {
	res.Stage = domain.StageConversion
	ctx, span := s.tracer.Start(ctx, "TrackingService.TrackConversion")
	defer span.End()
	defer s.recoverPanic(ctx, span, &res)

	if err := ev.Validate(); err != nil {
		return s.fail(ctx, span, res, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(ev.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	ts := s.eventTime(ev.Timestamp)
	res.EventID = computeEventID(res.Stage, ev.User.UserID, ts, ev.ConversionType, strconv.FormatFloat(ev.Value, 'f', -1, 64), currency, ev.AttributedSource)

	rec := domain.RevenueRecord{
		ID:               res.EventID,
		UserID:           ev.User.UserID,
		Amount:           ev.Value,
		Currency:         currency,
		ConversionType:   ev.ConversionType,
		AttributedSource: ev.AttributedSource,
		Timestamp:        ts,
	}

	props := s.baseProperties(ev.User, res.EventID, ts)
	props["conversion_type"] = ev.ConversionType
	props["value"] = ev.Value
	props["currency"] = currency
	props["attributed_source"] = ev.AttributedSource

	return s.run(ctx, span, res, job{
		stage:     res.Stage,
		userID:    ev.User.UserID,
		eventID:   res.EventID,
		eventName: "conversion_" + ev.ConversionType,
		props:     props,
		persist: func(ctx context.Context) error {
			return s.store.RecordRevenue(ctx, rec)
		},
	})
}

// TrackEngagement rates an engagement interaction and appends it to the user's history
func (s *TrackingService) TrackEngagement(ctx context.Context, ev domain.EngagementEvent) (res Result) {
	res.Stage = domain.StageEngagement
	ctx, span := s.tracer.Start(ctx, "TrackingService.TrackEngagement")
	defer span.End()
	defer s.recoverPanic(ctx, span, &res)

	if err := ev.Validate(); err != nil {
		return s.fail(ctx, span, res, err)
	}

	quality := scoring.EngagementQuality(ev.Subtype, ev.Data, ev.Session)
	res.Score = &quality
	res.Level = scoring.EngagementLevel(quality)

	ts := s.eventTime(ev.Timestamp)
	res.EventID = computeEventID(res.Stage, ev.User.UserID, ts, ev.Subtype, canonical(ev.Data), canonical(ev.Session))

	props := s.baseProperties(ev.User, res.EventID, ts)
	props["subtype"] = ev.Subtype
	props["quality"] = quality
	props["level"] = res.Level

	return s.run(ctx, span, res, job{
		stage:     res.Stage,
		userID:    ev.User.UserID,
		eventID:   res.EventID,
		eventName: "engagement_" + ev.Subtype,
		props:     props,
		persist: func(ctx context.Context) error {
			_, err := s.store.AppendEngagement(ctx, ev.User.UserID, domain.EngagementEntry{
				Subtype:   ev.Subtype,
				Quality:   quality,
				Timestamp: ts,
			})
			return err
		},
	})
}

// run performs the side effects of a validated event: claim, sink fan-out,
// persistence, then awaiting the fan-out
func (s *TrackingService) run(ctx context.Context, span trace.Span, res Result, j job) Result {
	span.SetAttributes(
		attribute.String("stage", string(j.stage)),
		attribute.String("event_id", j.eventID))

	log := s.log.With(
		zap.String("stage", string(j.stage)),
		zap.String("event_id", j.eventID),
		zap.String("user_id", j.userID))

	claimed, err := s.guard.Claim(ctx, j.eventID)
	if err != nil {
		return s.fail(ctx, span, res, err)
	}
	if !claimed {
		log.Info("Duplicate event ignored")
		res.Success = true
		res.Duplicate = true
		s.count(ctx, j.stage, "duplicate")
		return res
	}

	var pending <-chan []sink.Outcome
	if s.cfg.SinksEnabled && s.sinks != nil {
		if s.cfg.Debug {
			log.Debug("Dispatching event to sinks",
				zap.String("event_name", j.eventName),
				zap.Any("properties", j.props))
		}
		pending = s.sinks.Start(ctx, j.eventName, j.props)
	}

	if err := j.persist(ctx); err != nil {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		if rErr := s.guard.Release(releaseCtx, j.eventID); rErr != nil {
			log.Warn("Failed to release idempotency claim", zap.Error(rErr))
		}
		cancel()

		res.Sinks = s.await(ctx, log, pending)
		return s.fail(ctx, span, res, err)
	}

	res.Sinks = s.await(ctx, log, pending)
	res.Success = true
	s.count(ctx, j.stage, "success")

	log.Info("Event tracked",
		zap.String("level", res.Level),
		zap.Int("sinks", len(res.Sinks)),
		zap.Int("sink_failures", len(sink.Failed(res.Sinks))))

	return res
}

// await collects sink outcomes. Failures are logged and counted only.
func (s *TrackingService) await(ctx context.Context, log *zap.Logger, pending <-chan []sink.Outcome) []sink.Outcome {
	if pending == nil {
		return nil
	}

	outcomes := <-pending
	for _, o := range sink.Failed(outcomes) {
		log.Warn("Analytics sink delivery failed",
			zap.String("sink", o.Sink),
			zap.Duration("duration", o.Duration),
			zap.Error(o.Err))
		s.metrics.SinkFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", o.Sink)))
	}
	return outcomes
}

func (s *TrackingService) fail(ctx context.Context, span trace.Span, res Result, err error) Result {
	res.Success = false
	res.Err = err

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.count(ctx, res.Stage, "failure")

	s.log.Warn("Event tracking failed",
		zap.String("stage", string(res.Stage)),
		zap.String("event_id", res.EventID),
		zap.Error(err))
	return res
}

func (s *TrackingService) recoverPanic(ctx context.Context, span trace.Span, res *Result) {
	if r := recover(); r != nil {
		*res = s.fail(ctx, span, *res, fmt.Errorf("panic during %s tracking: %v", res.Stage, r))
	}
}

func (s *TrackingService) count(ctx context.Context, stage domain.Stage, outcome string) {
	s.metrics.EventsTracked.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", string(stage)),
		attribute.String("outcome", outcome)))
}

func (s *TrackingService) eventTime(ts time.Time) time.Time {
	if ts.IsZero() {
		return s.now().UTC()
	}
	return ts.UTC()
}

func (s *TrackingService) baseProperties(user domain.UserProperties, eventID string, ts time.Time) sink.Properties {
	props := sink.Properties{
		sink.PropUserID:    user.UserID,
		sink.PropEventID:   eventID,
		sink.PropTimestamp: ts,
	}
	if user.ClientID != "" {
		props[sink.PropClientID] = user.ClientID
	}
	if user.SessionID != "" {
		props[sink.PropSessionID] = user.SessionID
	}
	if user.Segment != "" {
		props[sink.PropSegment] = user.Segment
	}
	return props
}
