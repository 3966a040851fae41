// Package report rolls tracked lifecycle data into weekly funnel reports.
package report

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/notify"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/telemetry"
)

// Store is the read side of the profile store plus snapshot persistence
type Store interface {
	QueryAcquisition(ctx context.Context, w domain.Window) ([]domain.AttributionRecord, error)
	QueryActivation(ctx context.Context, w domain.Window) ([]domain.LifecycleProfile, error)
	QueryRevenue(ctx context.Context, w domain.Window) ([]domain.RevenueRecord, error)
	PreviousReport(ctx context.Context, w domain.Window) (*domain.WeeklyReport, error)
	SaveReport(ctx context.Context, report *domain.WeeklyReport) error
}

// Aggregator builds, stores and delivers weekly reports
type Aggregator struct {
	store   Store
	channel notify.Channel
	printer Localizer
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	now     func() time.Time
	log     *zap.Logger
}

// NewAggregator creates a new aggregator rendering numbers in English
func NewAggregator(store Store, channel notify.Channel, metrics *telemetry.Metrics, log *zap.Logger) *Aggregator {
	if metrics == nil {
		metrics = telemetry.NoopMetrics()
	}
	return &Aggregator{
		store:   store,
		channel: channel,
		printer: message.NewPrinter(language.English),
		metrics: metrics,
		tracer:  telemetry.Tracer(),
		now:     time.Now,
		log:     log,
	}
}

// streams holds the raw data of a window. A nil error with no records means
// the stream was read and is empty.
type streams struct {
	acquisitions   []domain.AttributionRecord
	acquisitionErr error
	profiles       []domain.LifecycleProfile
	profilesErr    error
	revenue        []domain.RevenueRecord
	revenueErr     error
	previous       *domain.WeeklyReport
	previousErr    error
}

// GenerateReport builds the report of [start, end), stores the snapshot and
// sends it to recipients. A failing section is marked unavailable instead of
// failing the report. The report ID is returned even when delivery fails.
func (a *Aggregator) GenerateReport(ctx context.Context, start, end time.Time, recipients []string) (string, error) {
	w := domain.Window{Start: start.UTC(), End: end.UTC()}
	if w.Start.IsZero() || w.End.IsZero() {
		return "", &domain.ValidationError{Field: "window", Reason: "start_date and end_date are required"}
	}
	if !w.Start.Before(w.End) {
		return "", &domain.ValidationError{Field: "window", Reason: "start_date must be before end_date"}
	}

	reportID := domain.ReportID(w.Start, w.End)
	ctx, span := a.tracer.Start(ctx, "Aggregator.GenerateReport",
		trace.WithAttributes(attribute.String("report_id", reportID)))
	defer span.End()

	log := a.log.With(zap.String("report_id", reportID))

	data := a.fetch(ctx, w)
	report := a.assemble(reportID, w, data, log)

	if err := a.store.SaveReport(ctx, report); err != nil {
		a.finish(ctx, span, "failure", err)
		return "", fmt.Errorf("failed to save report snapshot: %w", err)
	}

	log.Info("Report generated",
		zap.Int("acquisitions", report.Summary.Acquisitions),
		zap.Int("conversions", report.Summary.Conversions),
		zap.Strings("unavailable", report.Summary.UnavailableData))

	if len(recipients) == 0 {
		log.Info("Report has no recipients, skipping delivery")
		a.finish(ctx, span, "success", nil)
		return reportID, nil
	}

	msg := notify.Message{
		Recipients: recipients,
		Subject:    Subject(report),
		Body:       Render(a.printer, report),
	}
	if err := a.channel.Send(ctx, msg); err != nil {
		a.finish(ctx, span, "delivery_failure", err)
		return reportID, fmt.Errorf("failed to deliver report: %w", err)
	}

	log.Info("Report delivered", zap.Int("recipients", len(recipients)))
	a.finish(ctx, span, "success", nil)
	return reportID, nil
}

func (a *Aggregator) finish(ctx context.Context, span trace.Span, outcome string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	a.metrics.ReportsGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// fetch reads the three streams and the previous snapshot concurrently. A
// failing stream never cancels the others.
func (a *Aggregator) fetch(ctx context.Context, w domain.Window) *streams {
	data := &streams{}
	var g errgroup.Group

	g.Go(func() error {
		data.acquisitionErr = guard("acquisition", func() (err error) {
			data.acquisitions, err = a.store.QueryAcquisition(ctx, w)
			return err
		})
		return nil
	})
	g.Go(func() error {
		data.profilesErr = guard("profiles", func() (err error) {
			data.profiles, err = a.store.QueryActivation(ctx, w)
			return err
		})
		return nil
	})
	g.Go(func() error {
		data.revenueErr = guard("revenue", func() (err error) {
			data.revenue, err = a.store.QueryRevenue(ctx, w)
			return err
		})
		return nil
	})
	g.Go(func() error {
		data.previousErr = guard("previous", func() (err error) {
			data.previous, err = a.store.PreviousReport(ctx, w)
			return err
		})
		return nil
	})

	_ = g.Wait()
	return data
}

func (a *Aggregator) assemble(reportID string, w domain.Window, data *streams, log *zap.Logger) *domain.WeeklyReport {
	report := &domain.WeeklyReport{
		ID:          reportID,
		StartDate:   w.Start,
		EndDate:     w.End,
		GeneratedAt: a.now().UTC(),
	}

	degrade := func(section domain.Stage, err error) domain.Section {
		log.Warn("Report section unavailable",
			zap.String("section", string(section)),
			zap.Error(err))
		return domain.Section{Status: domain.SectionUnavailable, Reason: err.Error()}
	}

	if err := build(domain.StageAcquisition, data.acquisitionErr, func() {
		report.Acquisition = Acquisition(data.acquisitions)
	}); err != nil {
		report.Acquisition = domain.AcquisitionSection{Section: degrade(domain.StageAcquisition, err)}
	}

	if err := build(domain.StageActivation, data.profilesErr, func() {
		report.Activation = Activation(data.profiles)
	}); err != nil {
		report.Activation = domain.ActivationSection{Section: degrade(domain.StageActivation, err)}
	}

	if err := build(domain.StageConversion, data.revenueErr, func() {
		report.Conversion = Conversion(data.revenue)
	}); err != nil {
		report.Conversion = domain.ConversionSection{Section: degrade(domain.StageConversion, err)}
	}

	if err := build(domain.StageEngagement, data.profilesErr, func() {
		report.Engagement = Engagement(data.profiles)
	}); err != nil {
		report.Engagement = domain.EngagementSection{Section: degrade(domain.StageEngagement, err)}
	}

	previous := data.previous
	if data.previousErr != nil {
		log.Warn("Previous report unavailable, skipping deltas", zap.Error(data.previousErr))
		previous = nil
	}
	report.Summary = Summarize(report, previous)

	return report
}

// build computes one section unless its data could not be read
func build(section domain.Stage, fetchErr error, compute func()) error {
	if fetchErr != nil {
		return fetchErr
	}
	return guard(string(section), func() error {
		compute()
		return nil
	})
}

// guard runs fn and turns an error or a panic into an AggregationError
func guard(section string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.AggregationError{Section: section, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := fn(); err != nil {
		return &domain.AggregationError{Section: section, Err: err}
	}
	return nil
}
