package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivationEvent_Validate_MissingUserID(t *testing.T) {
	err := ActivationEvent{Subtype: "demo_completed"}.Validate()

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "user_id", vErr.Field)
}

func TestEvents_Validate(t *testing.T) {
	user := UserProperties{UserID: "u-1"}

	tests := []struct {
		name  string
		event interface{ Validate() error }
		field string
	}{
		{"acquisition ok", AcquisitionEvent{User: user, Source: "google"}, ""},
		{"acquisition missing source", AcquisitionEvent{User: user}, "source"},
		{"activation blank subtype", ActivationEvent{User: user, Subtype: "  "}, "subtype"},
		{"activation negative time", ActivationEvent{User: user, Subtype: "demo_started", Context: ActivationContext{TimeSpentMs: -1}}, "context"},
		{"conversion ok", ConversionEvent{User: user, ConversionType: "purchase", Value: 49}, ""},
		{"conversion zero value", ConversionEvent{User: user, ConversionType: "trial"}, ""},
		{"conversion missing type", ConversionEvent{User: user, Value: 10}, "conversion_type"},
		{"conversion negative value", ConversionEvent{User: user, ConversionType: "purchase", Value: -1}, "value"},
		{"conversion NaN value", ConversionEvent{User: user, ConversionType: "purchase", Value: math.NaN()}, "value"},
		{"engagement missing subtype", EngagementEvent{User: user}, "subtype"},
		{"engagement missing user", EngagementEvent{Subtype: "return_visit"}, "user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestLifecycleProfile_AddActivation_KeepsTotalInStep(t *testing.T) {
	var p LifecycleProfile
	t1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)

	p.AddActivation(ScoredActivation{Subtype: "demo_started", Score: 10, Timestamp: t1})
	p.AddActivation(ScoredActivation{Subtype: "demo_completed", Score: 66, Timestamp: t0})

	assert.Equal(t, 76, p.TotalActivationScore)
	assert.Len(t, p.ActivationEvents, 2)
	assert.Equal(t, t0, *p.FirstActivation)
	assert.Equal(t, t1, *p.LastActivation)
}

func TestWindow_ContainsAndPrevious(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	w := Window{Start: start, End: start.AddDate(0, 0, 7)}

	assert.True(t, w.Contains(start))
	assert.False(t, w.Contains(w.End))

	prev := w.Previous()
	assert.Equal(t, start.AddDate(0, 0, -7), prev.Start)
	assert.Equal(t, start, prev.End)
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")

	wrapped := fmt.Errorf("failed to record revenue: %w", &PersistenceError{Op: "insert revenue", Err: cause})
	var pErr *PersistenceError
	require.True(t, errors.As(wrapped, &pErr))
	assert.ErrorIs(t, wrapped, cause)

	sErr := &SinkError{Sink: "mixpanel", StatusCode: 401, Err: cause}
	assert.Contains(t, sErr.Error(), "status 401")
	assert.ErrorIs(t, sErr, cause)

	assert.ErrorIs(t, &ConfigurationError{Key: "GA4_API_SECRET", Err: cause}, cause)
	assert.ErrorIs(t, &AggregationError{Section: "acquisition", Err: cause}, cause)
}
