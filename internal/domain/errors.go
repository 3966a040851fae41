package domain

import "fmt"

// ValidationError reports a missing or malformed event field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a credential or destination that cannot be resolved
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("configuration error for %s", e.Key)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// SinkError reports a failed delivery to one analytics destination.
// StatusCode is zero for transport failures.
type SinkError struct {
	Sink       string
	StatusCode int
	Err        error
}

func (e *SinkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sink %s failed with status %d: %v", e.Sink, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("sink %s failed: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed profile store operation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// AggregationError reports a report section that could not be computed
type AggregationError struct {
	Section string
	Err     error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("failed to aggregate %s section: %v", e.Section, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}
